package match

// SmallTable is the target-to-target hash table: positions keyed by the
// small (4-byte) checksum, with an optional chain of older positions in
// the same bucket. HashCkoffset lets stored value 0 mean "empty".
type SmallTable struct {
	table     []uint32
	cfg       HashCfg
	prev      []uint32
	prevMask  uint64
	chained   bool
}

// NewSmallTable builds a small table sized for slots expected entries.
// sprevsz, the size of the chain array, must be a power of two, or 0 to
// disable chaining.
func NewSmallTable(slots, sprevsz int) *SmallTable {
	cfg := NewHashCfg(slots)
	t := &SmallTable{
		table: make([]uint32, cfg.Size),
		cfg:   cfg,
	}
	if sprevsz > 0 {
		t.prev = make([]uint32, sprevsz)
		t.prevMask = uint64(sprevsz - 1)
		t.chained = true
	}
	return t
}

// Reset zeroes all buckets and chain entries, preparing the table for a
// new window.
func (t *SmallTable) Reset() {
	for i := range t.table {
		t.table[i] = 0
	}
	for i := range t.prev {
		t.prev[i] = 0
	}
}

// Lookup returns the most recently inserted position for cksum, or
// ok=false if the bucket is empty.
func (t *SmallTable) Lookup(cksum uint64) (pos uint64, ok bool) {
	val := t.table[t.cfg.Bucket(cksum)]
	if val == 0 {
		return 0, false
	}
	return uint64(val) - HashCkoffset, true
}

// Insert records pos under cksum's bucket, pushing any prior occupant
// onto the chain array when chaining is enabled.
func (t *SmallTable) Insert(cksum, pos uint64) {
	stored := pos + HashCkoffset
	if stored > 0xFFFFFFFF {
		return
	}
	bucket := t.cfg.Bucket(cksum)
	if t.chained {
		oldHead := t.table[bucket]
		t.prev[pos&t.prevMask] = oldHead
	}
	t.table[bucket] = uint32(stored)
}

// ChainPrev walks one step back through pos's chain, returning the prior
// position in the same bucket, or ok=false if the chain ends or the entry
// is stale (wrapped past the chain array's coverage).
func (t *SmallTable) ChainPrev(pos, currentInputPos uint64) (prevPos uint64, ok bool) {
	if !t.chained {
		return 0, false
	}
	prevVal := t.prev[pos&t.prevMask]
	if prevVal == 0 {
		return 0, false
	}
	prevPos = uint64(prevVal) - HashCkoffset
	if prevPos > pos {
		return 0, false
	}
	if currentInputPos-prevPos > t.prevMask {
		return 0, false
	}
	return prevPos, true
}

// Size reports the bucket count.
func (t *SmallTable) Size() int { return t.cfg.Size }

// Cfg returns the table's hash configuration.
func (t *SmallTable) Cfg() HashCfg { return t.cfg }

// LargeTable is the source-to-target hash table. Unlike SmallTable it
// never chains — the newest write to a bucket always wins — and it is
// never reset between windows, since source checksums persist for the
// life of the stream.
type LargeTable struct {
	table []uint64
	cfg   HashCfg
}

// NewLargeTable builds a large table sized for slots expected entries
// (at least 8).
func NewLargeTable(slots int) *LargeTable {
	if slots < 8 {
		slots = 8
	}
	cfg := NewHashCfg(slots)
	return &LargeTable{table: make([]uint64, cfg.Size), cfg: cfg}
}

// Lookup returns the absolute source position stored for cksum, or
// ok=false if empty.
func (t *LargeTable) Lookup(cksum uint64) (pos uint64, ok bool) {
	val := t.table[t.cfg.Bucket(cksum)]
	if val == 0 {
		return 0, false
	}
	return val - HashCkoffset, true
}

// Insert overwrites cksum's bucket with pos.
func (t *LargeTable) Insert(cksum, pos uint64) {
	t.table[t.cfg.Bucket(cksum)] = pos + HashCkoffset
}

// Size reports the bucket count.
func (t *LargeTable) Size() int { return t.cfg.Size }

// Cfg returns the table's hash configuration.
func (t *LargeTable) Cfg() HashCfg { return t.cfg }
