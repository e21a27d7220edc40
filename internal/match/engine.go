package match

import "math"

// NoMatchAddr marks a Match as a RUN rather than a COPY: RUN instructions
// have no meaningful address.
const NoMatchAddr = math.MaxUint64

// Match is one match the engine found, not yet turned into an Instruction.
type Match struct {
	// TargetPos is where the match starts in the target.
	TargetPos int
	// Length is the match length.
	Length int
	// Addr is the absolute source offset (IsSource) or target position
	// (self-copy), or NoMatchAddr for a RUN.
	Addr uint64
	// IsSource is true for a source copy, false for a target self-copy.
	IsSource bool
}

// IsRun reports whether m represents a RUN rather than a COPY.
func (m Match) IsRun() bool { return m.Addr == NoMatchAddr }

// Inst is the subset of VCDIFF instruction shapes the engine emits: ADD,
// COPY (with an address already resolved to the source+target combined
// space), or RUN.
type Inst struct {
	Type InstKind
	Len  uint64
	Addr uint64 // meaningful only for Copy
}

// InstKind distinguishes the three instruction shapes Engine emits.
type InstKind int

const (
	InstAdd InstKind = iota
	InstCopy
	InstRun
)

// Engine scans target data, finding matches against an optional source
// dictionary and against earlier parts of the target itself, and turns
// the result into a flat instruction list an encoder can pack into
// ADD/COPY/RUN opcodes.
type Engine struct {
	config     Config
	largeHash  LargeHash
	largeTable *LargeTable
	smallTable *SmallTable

	// MatchSrcPos is the source position the next window's initial probe
	// should try first (xdelta3's MATCH_TARGET mechanism): when a match
	// extends all the way to the end of one window, the next window often
	// continues the same source run.
	MatchSrcPos uint64
}

const allocSize = 1 << 14

// NewEngine builds a match engine tuned by config, sized for a source of
// sourceLen bytes (0 if there is none) and a target window of winsize
// bytes.
func NewEngine(config Config, sourceLen uint64, winsize int) *Engine {
	largeSlots := 8
	if sourceLen > 0 {
		srcLen := int(sourceLen)
		srcMaxWinsize := nextPowerOfTwo(srcLen)
		if srcMaxWinsize < allocSize {
			srcMaxWinsize = allocSize
		}
		largeSlots = srcMaxWinsize / config.LargeStep
		if largeSlots < 8 {
			largeSlots = 8
		}
	}

	sprevsz := 0
	if config.SmallChain > 1 || config.SmallLChain > 1 {
		capped := nextPowerOfTwo(winsize)
		if capped > DefaultSPrevSz {
			capped = DefaultSPrevSz
		}
		if capped < 16 {
			capped = 16
		}
		sprevsz = capped
	}

	return &Engine{
		config:     config,
		largeHash:  NewLargeHash(config.LargeLook),
		largeTable: NewLargeTable(largeSlots),
		smallTable: NewSmallTable(winsize, sprevsz),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// IndexSource inserts every large-hash-window position of source into the
// large table, scanning backward so that the earliest position in each
// bucket wins (last write wins, and we write oldest last).
func (e *Engine) IndexSource(source []byte) {
	look := e.config.LargeLook
	step := e.config.LargeStep
	srcLen := len(source)
	if srcLen < look {
		return
	}

	pos := srcLen - look
	for {
		cksum := e.largeHash.Checksum(source[pos:])
		e.largeTable.Insert(cksum, uint64(pos))
		if pos < step {
			break
		}
		pos -= step
	}
}

// tryLazy mirrors xdelta3's TRYLAZYLEN: whether it's worth deferring
// acceptance of a match one byte to see if a longer one starts just after.
func tryLazy(matchLen, maxLazy, pos, availIn int) bool {
	return maxLazy > 0 && matchLen < maxLazy && pos+matchLen+2 <= availIn
}

// FindMatches scans target for matches against source (which may be nil)
// and against earlier target data, returning the instruction list that
// exactly covers target.
func (e *Engine) FindMatches(target []byte, source []byte) []Inst {
	doLarge := source != nil
	targetLen := len(target)
	slook := e.config.SmallLook
	llook := e.config.LargeLook
	sourceLen := uint64(len(source))

	e.smallTable.Reset()

	var matches []Match
	inputPos := 0
	minMatch := MinMatch

	if targetLen < slook {
		return emitAddAll(targetLen)
	}

	scksum := SmallChecksum(target)
	runL, runC := Comprun(target, slook)

	var lcksum uint64
	if doLarge && targetLen >= llook {
		lcksum = e.largeHash.Checksum(target)
	}

	// Initial probe against MatchSrcPos (MATCH_TARGET).
	if doLarge {
		srcPos := int(e.MatchSrcPos)
		if srcPos < len(source) {
			maxFwd := targetLen
			if avail := len(source) - srcPos; avail < maxFwd {
				maxFwd = avail
			}
			if maxFwd >= MinMatch {
				fwdLen := ForwardMatch(source[srcPos:], target, maxFwd)
				if fwdLen >= MinMatch {
					matches = append(matches, Match{TargetPos: 0, Length: fwdLen, Addr: uint64(srcPos), IsSource: true})
					inputPos = fwdLen
					if fwdLen == targetLen {
						e.MatchSrcPos = uint64(srcPos + fwdLen)
					}
					if inputPos+slook <= targetLen {
						scksum = SmallChecksum(target[inputPos:])
						runL, runC = Comprun(target[inputPos:], slook)
						if doLarge && inputPos+llook <= targetLen {
							lcksum = e.largeHash.Checksum(target[inputPos:])
						}
					}
				}
			}
		}
	}

	for {
		if inputPos+slook > targetLen {
			break
		}

		skipMinMatchDecay := false

		// 1. RUN.
		if runL == slook {
			remaining := targetLen - inputPos - runL
			totalRun := runL + FindRunLength(target[inputPos+runL:], runC, remaining)
			if totalRun >= minMatch && totalRun >= MinRun {
				matches = append(matches, Match{TargetPos: inputPos, Length: totalRun, Addr: NoMatchAddr})

				if !tryLazy(totalRun, e.config.MaxLazy, inputPos, targetLen) {
					inputPos += totalRun
					minMatch = MinMatch
					if inputPos+slook <= targetLen {
						scksum = SmallChecksum(target[inputPos:])
						runL, runC = Comprun(target[inputPos:], slook)
						if doLarge && inputPos+llook <= targetLen {
							lcksum = e.largeHash.Checksum(target[inputPos:])
						}
					}
					continue
				}
				minMatch = totalRun
				skipMinMatchDecay = true
			}
		}

		// 2. LARGE (source) match.
		if doLarge && inputPos+llook <= targetLen {
			if srcPos, ok := e.largeTable.Lookup(lcksum); ok {
				if m, ok := e.extendSourceMatch(target, source, inputPos, srcPos); ok {
					backLen := inputPos - m.TargetPos
					fwdLen := m.Length - backLen
					if fwdLen >= minMatch {
						if backLen > 0 {
							for len(matches) > 0 && matches[len(matches)-1].TargetPos >= m.TargetPos {
								matches = matches[:len(matches)-1]
							}
						}
						matches = append(matches, m)
						if !tryLazy(fwdLen, e.config.MaxLazy, inputPos, targetLen) {
							inputPos += fwdLen
							minMatch = MinMatch
							if inputPos+slook <= targetLen {
								scksum = SmallChecksum(target[inputPos:])
								runL, runC = Comprun(target[inputPos:], slook)
								if doLarge && inputPos+llook <= targetLen {
									lcksum = e.largeHash.Checksum(target[inputPos:])
								}
							}
							continue
						}
						minMatch = fwdLen
						skipMinMatchDecay = true
					}
				}
			}
		}

		// 3. SMALL (target self) match.
		if m, ok := e.smallMatch(target, inputPos, minMatch); ok {
			e.smallTable.Insert(uint64(scksum), uint64(inputPos))
			matches = append(matches, m)
			if !tryLazy(m.Length, e.config.MaxLazy, inputPos, targetLen) {
				inputPos += m.Length
				minMatch = MinMatch
				if inputPos+slook <= targetLen {
					scksum = SmallChecksum(target[inputPos:])
					runL, runC = Comprun(target[inputPos:], slook)
					if doLarge && inputPos+llook <= targetLen {
						lcksum = e.largeHash.Checksum(target[inputPos:])
					}
				}
				continue
			}
			minMatch = m.Length
			skipMinMatchDecay = true
		} else {
			e.smallTable.Insert(uint64(scksum), uint64(inputPos))
		}

		// 4. Advance by 1.
		if !skipMinMatchDecay && minMatch > MinMatch {
			minMatch--
		}

		inputPos++
		if inputPos+slook > targetLen {
			break
		}

		scksum = SmallChecksum(target[inputPos:])

		nextByte := target[inputPos+slook-1]
		if nextByte == runC {
			runL++
		} else {
			runC = nextByte
			runL = 1
		}

		if doLarge && inputPos+llook <= targetLen {
			lcksum = e.largeHash.Update(lcksum, target[inputPos-1:])
		}
	}

	return matchesToInstructions(targetLen, sourceLen, matches)
}

func (e *Engine) smallMatch(target []byte, inputPos, minMatch int) (Match, bool) {
	scksum := uint64(SmallChecksum(target[inputPos:]))
	head, ok := e.smallTable.Lookup(scksum)
	if !ok {
		return Match{}, false
	}

	isLazy := minMatch > MinMatch
	maxChain := e.config.SmallChain
	if isLazy {
		maxChain = e.config.SmallLChain
	}

	bestLen := 0
	bestOffset := 0
	base := int(head)
	chain := maxChain

	for {
		if base >= inputPos {
			break
		}
		maxCmp := len(target) - inputPos
		cmpLen := ForwardMatch(target[base:], target[inputPos:], maxCmp)

		if cmpLen > bestLen {
			bestLen = cmpLen
			bestOffset = base
			if cmpLen >= e.config.LongEnough || inputPos+cmpLen >= len(target) {
				break
			}
		}

		chain--
		if chain == 0 {
			break
		}

		prev, ok := e.smallTable.ChainPrev(uint64(base), uint64(inputPos))
		if !ok {
			break
		}
		base = int(prev)
	}

	if bestLen < MinMatch {
		return Match{}, false
	}

	distance := inputPos - bestOffset
	if bestLen == 4 && distance >= 1<<14 {
		return Match{}, false
	}
	if bestLen == 5 && distance >= 1<<21 {
		return Match{}, false
	}

	return Match{TargetPos: inputPos, Length: bestLen, Addr: uint64(bestOffset), IsSource: false}, true
}

func (e *Engine) extendSourceMatch(target, source []byte, inputPos int, srcPos uint64) (Match, bool) {
	sp := int(srcPos)
	if sp >= len(source) {
		return Match{}, false
	}

	maxFwd := len(target) - inputPos
	if avail := len(source) - sp; avail < maxFwd {
		maxFwd = avail
	}
	fwdLen := ForwardMatch(source[sp:], target[inputPos:], maxFwd)
	if fwdLen < MinMatch {
		return Match{}, false
	}

	maxBack := inputPos
	if sp < maxBack {
		maxBack = sp
	}
	backLen := 0
	if maxBack > 0 {
		backLen = BackwardMatch(source[sp-maxBack:sp], target[inputPos-maxBack:inputPos], maxBack)
	}

	return Match{
		TargetPos: inputPos - backLen,
		Length:    backLen + fwdLen,
		Addr:      uint64(sp - backLen),
		IsSource:  true,
	}, true
}

func emitAddAll(targetLen int) []Inst {
	if targetLen == 0 {
		return nil
	}
	return []Inst{{Type: InstAdd, Len: uint64(targetLen)}}
}

func matchesToInstructions(targetLen int, sourceLen uint64, matches []Match) []Inst {
	instructions := make([]Inst, 0, len(matches)*2+1)

	var sorted []Match
	for _, m := range matches {
		for len(sorted) > 0 {
			last := sorted[len(sorted)-1]
			if last.TargetPos+last.Length > m.TargetPos && m.Length > last.Length {
				sorted = sorted[:len(sorted)-1]
			} else {
				break
			}
		}
		if len(sorted) == 0 {
			sorted = append(sorted, m)
			continue
		}
		last := sorted[len(sorted)-1]
		if m.TargetPos >= last.TargetPos+last.Length || m.Length > last.Length {
			sorted = append(sorted, m)
		}
	}

	coveredTo := 0
	for _, m := range sorted {
		mStart := m.TargetPos
		mEnd := mStart + m.Length

		if mStart < coveredTo {
			continue
		}

		if mStart > coveredTo {
			instructions = append(instructions, Inst{Type: InstAdd, Len: uint64(mStart - coveredTo)})
		}

		switch {
		case m.IsRun():
			instructions = append(instructions, Inst{Type: InstRun, Len: uint64(m.Length)})
		case m.IsSource:
			instructions = append(instructions, Inst{Type: InstCopy, Len: uint64(m.Length), Addr: m.Addr})
		default:
			instructions = append(instructions, Inst{Type: InstCopy, Len: uint64(m.Length), Addr: sourceLen + m.Addr})
		}

		coveredTo = mEnd
	}

	if coveredTo < targetLen {
		instructions = append(instructions, Inst{Type: InstAdd, Len: uint64(targetLen - coveredTo)})
	}

	return instructions
}
