// Package match implements the hash-chained LZ-style match engine used by
// the VCDIFF encoder: rolling checksums, hash tables, matcher tuning
// profiles, and the engine that walks a target buffer producing the match
// list an encoder turns into COPY/ADD/RUN instructions.
package match

import "encoding/binary"

// HashMult32 is the LCG multiplier xdelta3 uses for its small (4-byte)
// rolling checksum.
const HashMult32 = 1_597_334_677

// HashCkoffset is added to stored hash-table positions so that 0 can mean
// "empty bucket" without colliding with a legitimate position 0.
const HashCkoffset = 1

// SingleHash is the permutation table xdelta3's large (Adler-style)
// checksum mixes input bytes through before accumulating them.
var SingleHash = [256]uint16{
	0xbcd1, 0xbb65, 0x42c2, 0xdffe, 0x9666, 0x431b, 0x8504, 0xeb46, 0x6379, 0xd460, 0xcf14, 0x53cf,
	0xdb51, 0xdb08, 0x12c8, 0xf602, 0xe766, 0x2394, 0x250d, 0xdcbb, 0xa678, 0x02af, 0xa5c6, 0x7ea6,
	0xb645, 0xcb4d, 0xc44b, 0xe5dc, 0x9fe6, 0x5b5c, 0x35f5, 0x701a, 0x220f, 0x6c38, 0x1a56, 0x4ca3,
	0xffc6, 0xb152, 0x8d61, 0x7a58, 0x9025, 0x8b3d, 0xbf0f, 0x95a3, 0xe5f4, 0xc127, 0x3bed, 0x320b,
	0xb7f3, 0x6054, 0x333c, 0xd383, 0x8154, 0x5242, 0x4e0d, 0x0a94, 0x7028, 0x8689, 0x3a22, 0x0980,
	0x1847, 0xb0f1, 0x9b5c, 0x4176, 0xb858, 0xd542, 0x1f6c, 0x2497, 0x6a5a, 0x9fa9, 0x8c5a, 0x7743,
	0xa8a9, 0x9a02, 0x4918, 0x438c, 0xc388, 0x9e2b, 0x4cad, 0x01b6, 0xab19, 0xf777, 0x365f, 0x1eb2,
	0x091e, 0x7bf8, 0x7a8e, 0x5227, 0xeab1, 0x2074, 0x4523, 0xe781, 0x01a3, 0x163d, 0x3b2e, 0x287d,
	0x5e7f, 0xa063, 0xb134, 0x8fae, 0x5e8e, 0xb7b7, 0x4548, 0x1f5a, 0xfa56, 0x7a24, 0x900f, 0x42dc,
	0xcc69, 0x02a0, 0x0b22, 0xdb31, 0x71fe, 0x0c7d, 0x1732, 0x1159, 0xcb09, 0xe1d2, 0x1351, 0x52e9,
	0xf536, 0x5a4f, 0xc316, 0x6bf9, 0x8994, 0xb774, 0x5f3e, 0xf6d6, 0x3a61, 0xf82c, 0xcc22, 0x9d06,
	0x299c, 0x09e5, 0x1eec, 0x514f, 0x8d53, 0xa650, 0x5c6e, 0xc577, 0x7958, 0x71ac, 0x8916, 0x9b4f,
	0x2c09, 0x5211, 0xf6d8, 0xcaaa, 0xf7ef, 0x287f, 0x7a94, 0xab49, 0xfa2c, 0x7222, 0xe457, 0xd71a,
	0x00c3, 0x1a76, 0xe98c, 0xc037, 0x8208, 0x5c2d, 0xdfda, 0xe5f5, 0x0b45, 0x15ce, 0x8a7e, 0xfcad,
	0xaa2d, 0x4b5c, 0xd42e, 0xb251, 0x907e, 0x9a47, 0xc9a6, 0xd93f, 0x085e, 0x35ce, 0xa153, 0x7e7b,
	0x9f0b, 0x25aa, 0x5d9f, 0xc04d, 0x8a0e, 0x2875, 0x4a1c, 0x295f, 0x1393, 0xf760, 0x9178, 0x0f5b,
	0xfa7d, 0x83b4, 0x2082, 0x721d, 0x6462, 0x0368, 0x67e2, 0x8624, 0x194d, 0x22f6, 0x78fb, 0x6791,
	0xb238, 0xb332, 0x7276, 0xf272, 0x47ec, 0x4504, 0xa961, 0x9fc8, 0x3fdc, 0xb413, 0x007a, 0x0806,
	0x7458, 0x95c6, 0xccaa, 0x18d6, 0xe2ae, 0x1b06, 0xf3f6, 0x5050, 0xc8e8, 0xf4ac, 0xc04c, 0xf41c,
	0x992f, 0xae44, 0x5f1b, 0x1113, 0x1738, 0xd9a8, 0x19ea, 0x2d33, 0x9698, 0x2fe9, 0x323f, 0xcde2,
	0x6d71, 0xe37d, 0xb697, 0x2c4f, 0x4373, 0x9102, 0x075d, 0x8e25, 0x1672, 0xec28, 0x6acb, 0x86cc,
	0x186e, 0x9414, 0xd674, 0xd1a5,
}

// SmallChecksum computes xdelta3's 4-byte self-match checksum: read 4
// bytes native-endian, multiply by HashMult32. Not incremental — each
// step re-reads its own 4 bytes.
func SmallChecksum(base []byte) uint32 {
	v := binary.LittleEndian.Uint32(base[:4])
	return v * HashMult32
}

// LargeHash is the Adler-style rolling checksum used to index the source
// window for COPY matching.
type LargeHash struct {
	Look   int
	lookU32 uint32
}

// NewLargeHash builds checksum state for a window of the given width.
func NewLargeHash(look int) LargeHash {
	return LargeHash{Look: look, lookU32: uint32(look)}
}

// Checksum computes the full checksum of Look bytes starting at base.
func (h LargeHash) Checksum(base []byte) uint64 {
	var low, high uint32
	for _, b := range base[:h.Look] {
		low += uint32(SingleHash[b])
		high += low
	}
	return uint64(((high & 0xFFFF) << 16) | (low & 0xFFFF))
}

// Update performs the rolling update: remove base[0], add base[Look].
func (h LargeHash) Update(old uint64, base []byte) uint64 {
	cksum := uint32(old)
	oldC := uint32(SingleHash[base[0]])
	newC := uint32(SingleHash[base[h.Look]])

	low := (cksum - oldC + newC) & 0xFFFF
	high := ((cksum >> 16) - oldC*h.lookU32 + low) & 0xFFFF

	return uint64((high << 16) | low)
}

// HashCfg holds the bucket-sizing parameters for a hash table: a
// power-of-two slot count, the shift used to fold a 32-bit checksum down
// to that range, and the corresponding mask.
type HashCfg struct {
	Size  int
	Shift uint32
	Mask  uint64
}

// NewHashCfg derives a HashCfg for a table meant to hold roughly slots
// entries, following xdelta3's xd3_size_hashtable_bits compaction rule:
// find the smallest power of two strictly greater than slots, then use
// one bit fewer (half that size), capped at 2^28.
func NewHashCfg(slots int) HashCfg {
	bits := sizeHashtableBits(slots)
	size := 1 << bits
	return HashCfg{
		Size:  size,
		Shift: uint32(32 - bits),
		Mask:  uint64(size - 1),
	}
}

func sizeHashtableBits(slots int) int {
	const maxBits = 28
	for i := 3; i <= maxBits; i++ {
		if slots < (1 << i) {
			return i - 1
		}
	}
	return maxBits
}

// Bucket folds a checksum into this table's slot range:
// (cksum>>shift) XOR (cksum&mask), restricted to the low 32 bits of cksum.
func (c HashCfg) Bucket(cksum uint64) int {
	v := uint64(uint32(cksum))
	return int((v >> c.Shift) ^ (v & c.Mask))
}

// Comprun detects the run of identical bytes that ends at the last byte of
// seg[:look], returning its length and the repeated byte.
func Comprun(seg []byte, look int) (int, byte) {
	var runLen int
	var runByte byte
	for _, b := range seg[:look] {
		if b == runByte {
			runLen++
		} else {
			runByte = b
			runLen = 1
		}
	}
	return runLen, runByte
}
