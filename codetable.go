package vcdiff

// CodeTable represents the VCDIFF instruction code table
type CodeTable struct {
	entries [256][2]Instruction
}

// Get returns the instruction at the given code and slot
func (ct *CodeTable) Get(code byte, slot int) Instruction {
	return ct.entries[code][slot]
}

// BuildDefaultCodeTable creates the default code table specified in RFC 3284
// Section 5.6, byte-for-byte compatible with xdelta3's
// xd3_build_code_table/__rfc3284_code_table_desc.
func BuildDefaultCodeTable() *CodeTable {
	ct := &CodeTable{}

	// Initialize all entries to NoOp
	for i := 0; i < 256; i++ {
		ct.entries[i][0] = NewInstruction(NoOp, 0, 0)
		ct.entries[i][1] = NewInstruction(NoOp, 0, 0)
	}

	// Entry 0: RUN with size 0
	ct.entries[0][0] = NewInstruction(Run, 0, 0)

	// Entries 1-18: ADD with sizes 0-17
	for i := byte(0); i < 18; i++ {
		ct.entries[i+1][0] = NewInstruction(Add, i, 0)
	}

	index := 19

	// Entries 19-162: COPY instructions with different modes and sizes
	for mode := byte(0); mode < 9; mode++ {
		// COPY with size 0 (size will be read from stream)
		ct.entries[index][0] = NewInstruction(Copy, 0, mode)
		index++

		// COPY with sizes 4-18
		for size := byte(4); size < 19; size++ {
			ct.entries[index][0] = NewInstruction(Copy, size, mode)
			index++
		}
	}

	// Entries 163-234: Combined ADD+COPY instructions (modes 0-5, NEAR/SELF/HERE)
	for mode := byte(0); mode < 6; mode++ {
		for addSize := byte(1); addSize < 5; addSize++ {
			for copySize := byte(4); copySize < 7; copySize++ {
				ct.entries[index][0] = NewInstruction(Add, addSize, 0)
				ct.entries[index][1] = NewInstruction(Copy, copySize, mode)
				index++
			}
		}
	}

	// Entries 235-246: More combined ADD+COPY instructions (modes 6-8, SAME)
	for mode := byte(6); mode < 9; mode++ {
		for addSize := byte(1); addSize < 5; addSize++ {
			ct.entries[index][0] = NewInstruction(Add, addSize, 0)
			ct.entries[index][1] = NewInstruction(Copy, 4, mode)
			index++
		}
	}

	// Entries 247-255: COPY+ADD combinations
	for mode := byte(0); mode < 9; mode++ {
		ct.entries[index][0] = NewInstruction(Copy, 4, mode)
		ct.entries[index][1] = NewInstruction(Add, 1, 0)
		index++
	}

	return ct
}

// DefaultCodeTable is the default code table instance
var DefaultCodeTable = BuildDefaultCodeTable()

// InstInfo is the minimal description of an instruction the encoder's
// opcode chooser needs: its type, its size, and (for COPY) its address
// mode. It intentionally carries neither data nor address, since the
// choice of opcode depends only on shape.
type InstInfo struct {
	Type InstructionType
	Mode byte
	Size uint64
}

// ChosenOpcode is the result of ChooseInstruction: a single-instruction
// opcode for this instruction alone, plus an optional double-instruction
// opcode that would instead encode the *previous* pending instruction
// together with this one.
type ChosenOpcode struct {
	Code1 byte
	Code2 *byte
}

// ChooseInstruction selects the code-table opcode for inst, and reports
// whether it can be combined with prev (the currently pending instruction,
// or nil if none) into one of the double-instruction opcodes 163-255.
// This is xdelta3's xd3_choose_instruction, adapted to the default RFC
// 3284 table only (custom code tables are not supported).
func ChooseInstruction(prev *InstInfo, inst InstInfo) ChosenOpcode {
	switch inst.Type {
	case Run:
		return ChosenOpcode{Code1: 0}

	case Add:
		code1 := byte(1)
		var code2 *byte

		if inst.Size <= 17 {
			code1 += byte(inst.Size) // codes 2..18

			if inst.Size == 1 && prev != nil && prev.Size == 4 && prev.Type == Copy {
				c := 247 + prev.Mode
				code2 = &c
			}
		}

		return ChosenOpcode{Code1: code1, Code2: code2}

	default: // Copy
		mode := inst.Mode
		code1 := 19 + 16*mode
		var code2 *byte

		if inst.Size >= 4 && inst.Size <= 18 {
			code1 += byte(inst.Size) - 3

			if prev != nil && prev.Type == Add && prev.Size <= 4 {
				switch {
				case inst.Size <= 6 && mode <= 5:
					c := 163 + mode*12 + 3*(byte(prev.Size)-1) + (byte(inst.Size) - 4)
					code2 = &c
				case inst.Size == 4 && mode >= 6:
					c := 235 + (mode-6)*4 + (byte(prev.Size) - 1)
					code2 = &c
				}
			}
		}

		return ChosenOpcode{Code1: code1, Code2: code2}
	}
}
