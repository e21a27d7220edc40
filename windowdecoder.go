package vcdiff

import (
	"bytes"
	"fmt"
	"io"
)

// SourceData is a random-access view over the external source (dictionary)
// bytes a decoder or encoder works against. A plain []byte satisfies it
// directly via ByteSource.
type SourceData interface {
	Len() uint64
	Slice(start, end uint64) ([]byte, error)
}

// ByteSource adapts a []byte to SourceData.
type ByteSource []byte

func (b ByteSource) Len() uint64 { return uint64(len(b)) }

func (b ByteSource) Slice(start, end uint64) ([]byte, error) {
	if end > uint64(len(b)) || start > end {
		return nil, fmt.Errorf("%w: source slice [%d:%d) out of bounds (len %d)", ErrInvalidInput, start, end, len(b))
	}
	return b[start:end], nil
}

// decodeWindow executes one window's instructions against the external
// source (if any) and the target bytes already produced by prior windows
// in this stream (priorTarget, needed when WinIndicator&VCDTarget selects
// a "copy window" whose source segment is itself a range of previously
// decoded target bytes rather than the external dictionary). It returns
// the bytes this window contributes to the target stream.
func decodeWindow(window *Window, source SourceData, priorTarget []byte) ([]byte, error) {
	var sourceSegment []byte
	var sourceLength uint64

	switch {
	case window.WinIndicator&VCDSource != 0:
		if source == nil {
			return nil, fmt.Errorf("%w: window requires a source but none was supplied", ErrInvalidInput)
		}
		start := window.SourceSegmentPosition
		end := start + window.SourceSegmentSize
		if end > source.Len() {
			return nil, fmt.Errorf("%w: source segment [%d:%d) exceeds source length %d", ErrInvalidInput, start, end, source.Len())
		}
		seg, err := source.Slice(start, end)
		if err != nil {
			return nil, err
		}
		sourceSegment = seg
		sourceLength = uint64(len(sourceSegment))

	case window.WinIndicator&VCDTarget != 0:
		start := window.SourceSegmentPosition
		end := start + window.SourceSegmentSize
		if end > uint64(len(priorTarget)) {
			return nil, fmt.Errorf("%w: copy window [%d:%d) exceeds decoded target length %d", ErrInvalidInput, start, end, len(priorTarget))
		}
		sourceSegment = priorTarget[start:end]
		sourceLength = uint64(len(sourceSegment))
	}

	instructions, err := parseInstructions(window.InstructionSection, window.DataSection, window.AddressSection, sourceLength)
	if err != nil {
		return nil, err
	}

	target := make([]byte, 0, window.TargetWindowLength)

	for _, instruction := range instructions {
		switch instruction.Type {
		case NoOp:
			continue

		case Add:
			if uint64(len(instruction.Data)) != instruction.Size {
				return nil, ErrInvalidFormat
			}
			target = append(target, instruction.Data...)

		case Copy:
			addr := instruction.Addr

			if addr < sourceLength {
				end := addr + instruction.Size
				if end > sourceLength {
					return nil, errOutOfBounds("COPY", addr, instruction.Size, sourceLength)
				}
				target = append(target, sourceSegment[addr:end]...)
			} else {
				targetAddr := addr - sourceLength
				if targetAddr >= uint64(len(target)) {
					return nil, fmt.Errorf("%w: COPY instruction address %d references target position %d but target only has %d bytes",
						ErrInvalidInput, addr, targetAddr, len(target))
				}

				// Overlapping self-copies (targetAddr+i lands inside bytes
				// this same COPY has already produced) must be resolved
				// byte by byte rather than via a bulk slice copy.
				for i := uint64(0); i < instruction.Size; i++ {
					if targetAddr+i >= uint64(len(target)) {
						return nil, fmt.Errorf("%w: COPY instruction would read beyond target bounds: position %d, target size %d",
							ErrInvalidInput, targetAddr+i, len(target))
					}
					target = append(target, target[targetAddr+i])
				}
			}

		case Run:
			if len(instruction.Data) != 1 {
				return nil, ErrInvalidFormat
			}
			runByte := instruction.Data[0]
			for i := uint64(0); i < instruction.Size; i++ {
				target = append(target, runByte)
			}

		default:
			return nil, ErrInvalidFormat
		}
	}

	if uint64(len(target)) != window.TargetWindowLength {
		return nil, fmt.Errorf("%w: window produced %d bytes but declared target length %d", ErrInvalidInput, len(target), window.TargetWindowLength)
	}

	if window.HasChecksum {
		computed := ComputeChecksum(1, target)
		if computed != window.Checksum {
			return nil, &ChecksumError{Expected: window.Checksum, Actual: computed}
		}
	}

	return target, nil
}

// parseInstructions walks a window's instruction section via the default
// code table, resolving each instruction's size (from the table, or a
// trailing varint when the table entry is size-polymorphic), its ADD/RUN
// data, and its COPY address.
//
// A COPY's address depends on "here" (sourceLength plus the target bytes
// produced so far), which this function tracks as a running count rather
// than by materializing target content — the address cache only needs to
// know how many bytes precede the instruction, not their values, so this
// resolves addresses correctly even where actual target bytes are not yet
// available (e.g. a structural parse with no source attached).
func parseInstructions(instructionData, dataSection, addressData []byte, sourceLength uint64) ([]RuntimeInstruction, error) {
	stream := bytes.NewReader(instructionData)
	addressCache := NewAddressCache(NearCacheSize, SameCacheSize)
	addressCache.Reset(addressData)

	var instructions []RuntimeInstruction
	dataIndex := 0
	instructionOffset := 0
	var runningTargetLen uint64

	for {
		code, err := stream.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error reading instruction code at offset %d: %v", ErrInvalidInput, instructionOffset, err)
		}

		for slot := 0; slot < 2; slot++ {
			instruction := DefaultCodeTable.Get(code, slot)
			if instruction.Type == NoOp {
				continue
			}

			size := uint64(instruction.Size)
			if size == 0 {
				size, err = ReadVarint64(stream)
				if err != nil {
					return nil, fmt.Errorf("error reading size for %s instruction at offset %d: %w",
						instruction.Type, instructionOffset, err)
				}
			}

			runtimeInst := RuntimeInstruction{
				Type: instruction.Type,
				Size: size,
				Mode: instruction.Mode,
			}

			switch instruction.Type {
			case Add:
				if dataIndex+int(size) > len(dataSection) {
					return nil, errDataOverrun("ADD", instructionOffset, int(size), len(dataSection)-dataIndex)
				}
				runtimeInst.Data = make([]byte, size)
				copy(runtimeInst.Data, dataSection[dataIndex:dataIndex+int(size)])
				dataIndex += int(size)
				runningTargetLen += size

			case Run:
				if dataIndex >= len(dataSection) {
					return nil, fmt.Errorf("%w: RUN instruction at offset %d requires 1 byte but no data available in data section", ErrInvalidInput, instructionOffset)
				}
				runtimeInst.Data = []byte{dataSection[dataIndex]}
				dataIndex++
				runningTargetLen += size

			case Copy:
				here := sourceLength + runningTargetLen
				addr, err := addressCache.DecodeAddress(here, instruction.Mode)
				if err != nil {
					return nil, err
				}
				runtimeInst.Addr = addr
				runningTargetLen += size
			}

			instructions = append(instructions, runtimeInst)
		}
		instructionOffset++
	}

	return instructions, nil
}
