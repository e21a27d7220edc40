package vcdiff

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFileHeaderMinimal(t *testing.T) {
	buf := []byte{VCDIFFMagic1, VCDIFFMagic2, VCDIFFMagic3, VCDIFFVersion, 0x00}
	h, err := DecodeFileHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, VCDIFFMagic, h.Magic)
	require.Equal(t, byte(0), h.Indicator)
}

func TestDecodeFileHeaderRejectsBadMagic(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, VCDIFFVersion, 0x00}
	_, err := DecodeFileHeader(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeFileHeaderRejectsTruncatedMagic(t *testing.T) {
	buf := []byte{VCDIFFMagic1, VCDIFFMagic2}
	_, err := DecodeFileHeader(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecodeFileHeaderRejectsReservedIndicatorBits(t *testing.T) {
	buf := []byte{VCDIFFMagic1, VCDIFFMagic2, VCDIFFMagic3, VCDIFFVersion, 0xF8}
	_, err := DecodeFileHeader(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecodeFileHeaderRejectsCodeTable(t *testing.T) {
	buf := []byte{VCDIFFMagic1, VCDIFFMagic2, VCDIFFMagic3, VCDIFFVersion, VCDCodetable}
	buf = WriteVarint64(buf, 2)
	buf = append(buf, 0x01, 0x02)
	_, err := DecodeFileHeader(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestDecodeFileHeaderParsesSecondaryIDAndAppHeader(t *testing.T) {
	buf := []byte{VCDIFFMagic1, VCDIFFMagic2, VCDIFFMagic3, VCDIFFVersion, VCDDecompress | VCDAppHeader}
	buf = append(buf, 0x02) // secondary id
	buf = WriteVarint64(buf, 3)
	buf = append(buf, 'f', 'o', 'o')

	h, err := DecodeFileHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, byte(0x02), h.SecondaryID)
	require.Equal(t, []byte("foo"), h.AppHeader)
}

func TestEncodeDecodeFileHeaderRoundtrip(t *testing.T) {
	h := Header{
		Magic:     VCDIFFMagic,
		Version:   VCDIFFVersion,
		Indicator: VCDAppHeader,
		AppHeader: []byte("app-specific"),
	}
	buf := EncodeFileHeader(nil, h)

	decoded, err := DecodeFileHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, h.Magic, decoded.Magic)
	require.Equal(t, h.Version, decoded.Version)
	require.Equal(t, h.Indicator, decoded.Indicator)
	require.Equal(t, h.AppHeader, decoded.AppHeader)
}

func TestDecodeWindowHeaderAtEOFReturnsIoEOF(t *testing.T) {
	_, err := DecodeWindowHeader(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeWindowHeaderRejectsSourceAndTargetTogether(t *testing.T) {
	buf := []byte{VCDSource | VCDTarget}
	_, err := DecodeWindowHeader(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestEncodeDecodeWindowHeaderRoundtripWithSourceAndChecksum(t *testing.T) {
	window := Window{
		WinIndicator:          VCDSource | VCDAdler32,
		SourceSegmentSize:     10,
		SourceSegmentPosition: 0,
		TargetWindowLength:    5,
		DeltaIndicator:        0,
		HasChecksum:           true,
		Checksum:              0xDEADBEEF,
		DataSection:           []byte("hello"),
		InstructionSection:    []byte{0x01},
		AddressSection:        nil,
	}

	buf := EncodeWindowHeader(nil, window)

	decoded, err := DecodeWindowHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, window.WinIndicator, decoded.WinIndicator)
	require.Equal(t, window.SourceSegmentSize, decoded.SourceSegmentSize)
	require.Equal(t, window.SourceSegmentPosition, decoded.SourceSegmentPosition)
	require.Equal(t, window.TargetWindowLength, decoded.TargetWindowLength)
	require.True(t, decoded.HasChecksum)
	require.Equal(t, window.Checksum, decoded.Checksum)
	require.Equal(t, window.DataSection, decoded.DataSection)
	require.Equal(t, window.InstructionSection, decoded.InstructionSection)
}

func TestEncodeWindowHeaderComputesDeltaEncodingLength(t *testing.T) {
	window := Window{
		WinIndicator:       0,
		TargetWindowLength: 3,
		DataSection:        []byte("abc"),
		InstructionSection: []byte{0x02},
		AddressSection:     []byte{0x00},
	}
	buf := EncodeWindowHeader(nil, window)

	decoded, err := DecodeWindowHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, uint64(len(buf)-1-1), decoded.DeltaEncodingLength) // indicator byte + varint length prefix
}

func TestDecodeWindowHeaderRejectsOversizedTargetWindow(t *testing.T) {
	var delta []byte
	delta = WriteVarint64(delta, HardMaxWindowSize+1)
	delta = append(delta, 0x00)
	delta = WriteVarint64(delta, 0)
	delta = WriteVarint64(delta, 0)
	delta = WriteVarint64(delta, 0)

	buf := []byte{0x00}
	buf = WriteVarint64(buf, uint64(len(delta)))
	buf = append(buf, delta...)

	_, err := DecodeWindowHeader(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecodeWindowHeaderRejectsWrongEncLen(t *testing.T) {
	// Build an otherwise well-formed delta encoding (every field parses
	// cleanly, every length agrees with the bytes actually present), but
	// declare an outer length (enc_len) that is padded out with a few
	// extra bytes the sub-field lengths don't account for.
	var delta []byte
	delta = WriteVarint64(delta, 3) // target window length
	delta = append(delta, 0x00)     // delta indicator
	delta = WriteVarint64(delta, 3) // data section length
	delta = WriteVarint64(delta, 0) // instruction section length
	delta = WriteVarint64(delta, 0) // address section length
	delta = append(delta, 'a', 'b', 'c')

	padded := append(append([]byte{}, delta...), 0xAA, 0xBB, 0xCC)

	buf := []byte{0x00}
	buf = WriteVarint64(buf, uint64(len(padded)))
	buf = append(buf, padded...)

	_, err := DecodeWindowHeader(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrInvalidInput)
}
