package vcdiff

import "math"

// InstructionType represents the type of VCDIFF instruction
type InstructionType byte

const (
	NoOp InstructionType = 0
	Add  InstructionType = 1
	Run  InstructionType = 2
	Copy InstructionType = 3
)

// String returns string representation of instruction type
func (it InstructionType) String() string {
	switch it {
	case NoOp:
		return "NOOP"
	case Add:
		return "ADD"
	case Run:
		return "RUN"
	case Copy:
		return "COPY"
	default:
		return "UNKNOWN"
	}
}

// Instruction represents a single VCDIFF instruction from the code table
type Instruction struct {
	Type InstructionType
	Size byte
	Mode byte
}

// RuntimeInstruction represents an instruction with resolved size during
// decoding, or a fully-formed instruction ready for emission during
// encoding. Addr is uint64: copy addresses range over the combined
// source+target address space, which can exceed 32 bits for large
// sources even though any one window's target length is capped at
// HardMaxWindowSize.
type RuntimeInstruction struct {
	Type InstructionType
	Size uint64
	Mode byte
	Addr uint64
	Data []byte
}

// NewInstruction creates a new instruction
func NewInstruction(instrType InstructionType, size byte, mode byte) Instruction {
	return Instruction{
		Type: instrType,
		Size: size,
		Mode: mode,
	}
}

// NoMatchAddr is the sentinel Match.Addr value marking a RUN: a run has no
// source position, only a repeated byte.
const NoMatchAddr = math.MaxUint64

// Match is the intermediate record the match engine produces per covered
// target span, before the optimizer turns the match list into a sequence
// of COPY/ADD/RUN instructions. IsSource distinguishes a copy out of the
// external source window from a self-referential copy into the target
// already produced; Addr for a self match is expressed in the window's
// combined source-length-relative address space (i.e. SourceLen+TargetPos),
// matching the "here" addressing COPY instructions use on the wire.
type Match struct {
	TargetPos uint64
	Length    uint64
	Addr      uint64
	IsSource  bool
	RunByte   byte
}

// IsRun reports whether m represents a RUN rather than a COPY.
func (m Match) IsRun() bool {
	return m.Addr == NoMatchAddr
}
