// Package secondary implements VCDIFF secondary compression: an optional
// second compression pass applied to the DATA/INST/ADDR sections after
// VCDIFF delta encoding, selected by the file header's secondary
// compressor ID and gated per section by the Delta_Indicator's
// VCD_DATACOMP/VCD_INSTCOMP/VCD_ADDRCOMP bits.
package secondary

import "fmt"

// Standard xdelta3 secondary compressor IDs. DJW and FGK are xdelta3's
// own Huffman/FGK coders and are not implemented here (see
// SPEC_FULL.md's Non-goals); Zlib is this codec's own extension, not
// decodable by the reference C implementation.
const (
	IDNone = 0
	IDDJW  = 1
	IDLZMA = 2
	IDZlib = 3
	IDFGK  = 16
)

// minCompressSize is the smallest section worth attempting to compress.
const minCompressSize = 32

// Backend is a pluggable secondary compressor for VCDIFF sections.
type Backend interface {
	// ID is the secondary compressor ID stored in the file header.
	ID() byte
	// Compress returns data's compressed form.
	Compress(data []byte) ([]byte, error)
	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
	// ShouldCompress reports whether data is worth compressing.
	ShouldCompress(data []byte) bool
}

// NoCompression is the passthrough backend: Compress/Decompress are the
// identity function and ShouldCompress always refuses, so it never sets
// a delta-indicator compression bit.
type NoCompression struct{}

func (NoCompression) ID() byte                        { return IDNone }
func (NoCompression) Compress(data []byte) ([]byte, error) { return data, nil }
func (NoCompression) Decompress(data []byte) ([]byte, error) { return data, nil }
func (NoCompression) ShouldCompress([]byte) bool       { return false }

// CompressSection compresses data with backend, but only keeps the
// compressed form when it is strictly smaller than the original — the
// caller uses this to decide whether to set the corresponding
// Delta_Indicator bit.
func CompressSection(backend Backend, data []byte) (out []byte, compressed bool, err error) {
	if !backend.ShouldCompress(data) {
		return data, false, nil
	}
	c, err := backend.Compress(data)
	if err != nil {
		return nil, false, err
	}
	if len(c) < len(data) {
		return c, true, nil
	}
	return data, false, nil
}

// DecompressSection reverses CompressSection.
func DecompressSection(backend Backend, data []byte) ([]byte, error) {
	return backend.Decompress(data)
}

// CompressSections compresses data/inst/addr independently, returning the final
// section bytes (compressed or not, per section) and the Delta_Indicator
// bits to set.
func CompressSections(backend Backend, data, inst, addr []byte) (outData, outInst, outAddr []byte, deltaIndicator byte, err error) {
	const (
		vcdDataComp = 0x01
		vcdInstComp = 0x02
		vcdAddrComp = 0x04
	)

	var ind byte
	outData, ok, err := CompressSection(backend, data)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	if ok {
		ind |= vcdDataComp
	}

	outInst, ok, err = CompressSection(backend, inst)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	if ok {
		ind |= vcdInstComp
	}

	outAddr, ok, err = CompressSection(backend, addr)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	if ok {
		ind |= vcdAddrComp
	}

	return outData, outInst, outAddr, ind, nil
}

// DecompressSections reverses CompressSections given the Delta_Indicator
// bits that were set and the secondary compressor ID from the file
// header.
func DecompressSections(data, inst, addr []byte, deltaIndicator byte, secondaryID byte, hasSecondaryID bool) (outData, outInst, outAddr []byte, err error) {
	const (
		vcdDataComp = 0x01
		vcdInstComp = 0x02
		vcdAddrComp = 0x04
	)

	if deltaIndicator&(vcdDataComp|vcdInstComp|vcdAddrComp) == 0 {
		return data, inst, addr, nil
	}

	backend, err := BackendForID(secondaryID, hasSecondaryID)
	if err != nil {
		return nil, nil, nil, err
	}

	if deltaIndicator&vcdDataComp != 0 {
		if outData, err = DecompressSection(backend, data); err != nil {
			return nil, nil, nil, fmt.Errorf("decompressing data section: %w", err)
		}
	} else {
		outData = data
	}

	if deltaIndicator&vcdInstComp != 0 {
		if outInst, err = DecompressSection(backend, inst); err != nil {
			return nil, nil, nil, fmt.Errorf("decompressing instruction section: %w", err)
		}
	} else {
		outInst = inst
	}

	if deltaIndicator&vcdAddrComp != 0 {
		if outAddr, err = DecompressSection(backend, addr); err != nil {
			return nil, nil, nil, fmt.Errorf("decompressing address section: %w", err)
		}
	} else {
		outAddr = addr
	}

	return outData, outInst, outAddr, nil
}

// BackendForID looks up the decompression backend for a file header's
// secondary compressor ID.
func BackendForID(id byte, hasID bool) (Backend, error) {
	if !hasID {
		return nil, fmt.Errorf("delta indicator sets a compression bit but the file header carries no secondary compressor id")
	}
	switch id {
	case IDLZMA:
		return LZMABackend{}, nil
	case IDZlib:
		return NewZlibBackend(defaultZlibLevel), nil
	default:
		return nil, fmt.Errorf("unsupported secondary compressor id: %d", id)
	}
}
