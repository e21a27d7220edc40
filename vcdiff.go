package vcdiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xdelta-go/vcdiff/internal/secondary"
)

// Decoder applies a VCDIFF delta against a fixed source to reconstruct a
// target byte stream.
type Decoder interface {
	Decode(delta []byte) ([]byte, error)
}

type decoder struct {
	source SourceData
}

// NewDecoder creates a Decoder bound to source. source may be nil for
// deltas whose windows never set VCD_SOURCE (e.g. windows chained purely
// via VCD_TARGET copy windows, or windows that only ADD/RUN).
func NewDecoder(source []byte) Decoder {
	var sd SourceData
	if source != nil {
		sd = ByteSource(source)
	}
	return &decoder{source: sd}
}

func (d *decoder) Decode(delta []byte) ([]byte, error) {
	parsed, err := ParseDeltaHeader(delta)
	if err != nil {
		return nil, err
	}

	target := make([]byte, 0)

	for i := range parsed.Windows {
		windowTarget, err := decodeWindow(&parsed.Windows[i], d.source, target)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		target = append(target, windowTarget...)
	}

	return target, nil
}

// Decode is a convenience wrapper around NewDecoder(source).Decode(delta).
func Decode(source []byte, delta []byte) ([]byte, error) {
	return NewDecoder(source).Decode(delta)
}

// ParseDeltaHeader parses a VCDIFF delta's file header and window framing
// into a ParsedDelta, resolving every instruction's size, data, and COPY
// address (see parseInstructions), but without executing COPY/RUN against
// any actual source or target bytes. It is the structural-inspection path
// used by the `parse`/`analyze` CLI verbs, and by Decode internally before
// it runs each window's instructions for real.
func ParseDeltaHeader(delta []byte) (*ParsedDelta, error) {
	if len(delta) < MinimumFileSize {
		return nil, ErrInvalidFormat
	}

	parsed := &ParsedDelta{}
	reader := bytes.NewReader(delta)

	header, err := DecodeFileHeader(reader)
	if err != nil {
		return nil, err
	}
	parsed.Header = header
	hasSecondaryID := header.Indicator&VCDDecompress != 0

	for reader.Len() > 0 {
		window, err := DecodeWindowHeader(reader)
		if err != nil {
			if err == io.EOF {
				if reader.Len() > 0 {
					return nil, fmt.Errorf("%w: malformed VCDIFF delta: %d bytes remain but cannot form valid window", ErrInvalidInput, reader.Len())
				}
				break
			}
			return nil, err
		}

		// Sections are still in their on-wire (possibly secondary-
		// compressed) form here; undo that before anything downstream
		// (parseInstructions, and later decodeWindow) touches them.
		window.DataSection, window.InstructionSection, window.AddressSection, err =
			secondary.DecompressSections(window.DataSection, window.InstructionSection, window.AddressSection,
				window.DeltaIndicator, header.SecondaryID, hasSecondaryID)
		if err != nil {
			if hasSecondaryID {
				if _, idErr := secondary.BackendForID(header.SecondaryID, true); idErr != nil {
					return nil, fmt.Errorf("window %d: %w: %v", len(parsed.Windows), ErrUnsupported, err)
				}
			}
			return nil, fmt.Errorf("window %d: %w", len(parsed.Windows), err)
		}

		parsed.Windows = append(parsed.Windows, window)

		instructions, err := parseInstructions(window.InstructionSection, window.DataSection, window.AddressSection, window.SourceSegmentSize)
		if err != nil {
			return nil, err
		}
		parsed.Instructions = append(parsed.Instructions, instructions...)
	}

	return parsed, nil
}

// ParseDelta is kept for compatibility with callers that used the
// original decoder-only API name.
func ParseDelta(delta []byte) (*ParsedDelta, error) {
	return ParseDeltaHeader(delta)
}
