package vcdiff

import "github.com/xdelta-go/vcdiff/internal/match"

// optimizeInstructions post-processes the raw ADD/COPY/RUN stream a
// match.Engine produces: adjacent ADDs, adjacent RUNs of the same byte and
// adjacent COPYs with contiguous addresses are coalesced, zero-length
// instructions are dropped, and any
// ADD whose data contains an internal run of at least match.MinRun
// identical bytes is split into ADD/RUN/ADD so the run gets its own
// (cheaper) opcode. instructions must cover target exactly (sum of
// lengths == len(target)); the result covers it too.
func optimizeInstructions(instructions []match.Inst, target []byte) []match.Inst {
	if len(instructions) == 0 {
		return nil
	}

	coalesced := make([]match.Inst, 0, len(instructions))
	pos, lastStart := 0, 0
	for _, inst := range instructions {
		if inst.Len == 0 {
			continue
		}
		if len(coalesced) > 0 {
			last := coalesced[len(coalesced)-1]
			sameRunByte := last.Type != match.InstRun || target[lastStart] == target[pos]
			if merged, ok := tryCoalesce(last, inst); ok && sameRunByte {
				coalesced[len(coalesced)-1] = merged
				pos += int(inst.Len)
				continue
			}
		}
		coalesced = append(coalesced, inst)
		lastStart = pos
		pos += int(inst.Len)
	}

	result := make([]match.Inst, 0, len(coalesced)+len(coalesced)/2+8)
	splitAddRuns(coalesced, target, &result)

	return result
}

func tryCoalesce(a, b match.Inst) (match.Inst, bool) {
	if a.Type != b.Type {
		return match.Inst{}, false
	}
	switch a.Type {
	case match.InstAdd:
		return match.Inst{Type: match.InstAdd, Len: a.Len + b.Len}, true
	case match.InstRun:
		return match.Inst{Type: match.InstRun, Len: a.Len + b.Len}, true
	case match.InstCopy:
		if b.Addr == a.Addr+a.Len {
			return match.Inst{Type: match.InstCopy, Len: a.Len + b.Len, Addr: a.Addr}, true
		}
	}
	return match.Inst{}, false
}

func splitAddRuns(instructions []match.Inst, target []byte, result *[]match.Inst) {
	targetPos := 0
	for _, inst := range instructions {
		switch inst.Type {
		case match.InstAdd:
			length := int(inst.Len)
			splitAddWithRuns(target[targetPos:targetPos+length], result)
			targetPos += length
		default:
			*result = append(*result, inst)
			targetPos += int(inst.Len)
		}
	}
}

func splitAddWithRuns(data []byte, out *[]match.Inst) {
	if len(data) == 0 {
		return
	}
	if len(data) < match.MinRun {
		*out = append(*out, match.Inst{Type: match.InstAdd, Len: uint64(len(data))})
		return
	}

	i := 0
	for i < len(data) {
		if len(data)-i < match.MinRun {
			*out = append(*out, match.Inst{Type: match.InstAdd, Len: uint64(len(data) - i)})
			break
		}

		b := data[i]
		runLen := match.FindRunLength(data[i:], b, len(data)-i)

		if runLen >= match.MinRun {
			*out = append(*out, match.Inst{Type: match.InstRun, Len: uint64(runLen)})
			i += runLen
			continue
		}

		addStart := i
		i += runLen
		for i < len(data) {
			b = data[i]
			rl := match.FindRunLength(data[i:], b, len(data)-i)
			if rl >= match.MinRun {
				break
			}
			i += rl
		}
		*out = append(*out, match.Inst{Type: match.InstAdd, Len: uint64(i - addStart)})
	}
}
