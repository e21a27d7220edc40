package vcdiff

import (
	"bytes"
	"fmt"
	"io"
)

// DecodeFileHeader reads and validates the four-byte VCDIFF magic/version
// plus whichever optional sections Hdr_Indicator announces (RFC 3284
// Section 4.1). A custom code table (VCD_CODETABLE) is parsed only far
// enough to report its presence; this implementation always rejects it,
// since generalizing the whole instruction pipeline to an arbitrary table
// is out of scope (see SPEC_FULL.md Non-goals).
func DecodeFileHeader(reader *bytes.Reader) (Header, error) {
	var header Header
	startPos := reader.Len()

	var magic [3]byte
	n, err := reader.Read(magic[:])
	if err != nil {
		if err == io.EOF {
			return header, errUnexpectedEOF("VCDIFF magic bytes", 3-n)
		}
		return header, fmt.Errorf("error reading magic bytes at offset %d: %w", startPos-reader.Len(), err)
	}
	if n < 3 {
		return header, errUnexpectedEOF("VCDIFF magic bytes", 3-n)
	}

	if !bytes.Equal(magic[:], VCDIFFMagic[:]) {
		return header, fmt.Errorf("%w: expected magic %02x%02x%02x but got %02x%02x%02x",
			ErrInvalidMagic, VCDIFFMagic[0], VCDIFFMagic[1], VCDIFFMagic[2], magic[0], magic[1], magic[2])
	}

	version, err := reader.ReadByte()
	if err != nil {
		return header, errUnexpectedEOF("version byte", 1)
	}
	if version != VCDIFFVersion {
		return header, errInvalidValue("version", 3, version, fmt.Sprintf("only version %d is supported", VCDIFFVersion))
	}

	indicator, err := reader.ReadByte()
	if err != nil {
		return header, errUnexpectedEOF("header indicator", 1)
	}

	validHeaderBits := byte(VCDDecompress | VCDCodetable | VCDAppHeader)
	if indicator & ^validHeaderBits != 0 {
		return header, errInvalidValue("header indicator", 4, indicator, "reserved bits must be zero")
	}

	header.Magic = magic
	header.Version = version
	header.Indicator = indicator

	if indicator&VCDDecompress != 0 {
		secID, err := reader.ReadByte()
		if err != nil {
			return header, errUnexpectedEOF("secondary compressor id", 1)
		}
		header.SecondaryID = secID
	}

	if indicator&VCDCodetable != 0 {
		length, err := ReadVarint64(reader)
		if err != nil {
			return header, fmt.Errorf("error reading code table length: %w", err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return header, errUnexpectedEOF("code table data", int(length))
		}
		header.CodeTableData = data
		return header, fmt.Errorf("%w: custom code tables (VCD_CODETABLE) are not supported", ErrUnsupported)
	}

	if indicator&VCDAppHeader != 0 {
		length, err := ReadVarint64(reader)
		if err != nil {
			return header, fmt.Errorf("error reading application header length: %w", err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return header, errUnexpectedEOF("application header data", int(length))
		}
		header.AppHeader = data
	}

	return header, nil
}

// EncodeFileHeader appends the wire representation of h to buf.
func EncodeFileHeader(buf []byte, h Header) []byte {
	buf = append(buf, h.Magic[0], h.Magic[1], h.Magic[2], h.Version, h.Indicator)

	if h.Indicator&VCDDecompress != 0 {
		buf = append(buf, h.SecondaryID)
	}
	if h.Indicator&VCDAppHeader != 0 {
		buf = WriteVarint64(buf, uint64(len(h.AppHeader)))
		buf = append(buf, h.AppHeader...)
	}

	return buf
}

// DecodeWindowHeader reads one VCDIFF window: the Win_Indicator byte, the
// optional source segment fields, and then the delta encoding's own
// sub-header (target length, Delta_Indicator, section lengths, and the
// optional VCD_ADLER32 checksum), leaving window.DataSection/
// InstructionSection/AddressSection populated with the raw (still
// possibly secondary-compressed) bytes of each section.
func DecodeWindowHeader(reader *bytes.Reader) (Window, error) {
	var window Window

	if reader.Len() == 0 {
		return window, io.EOF
	}
	startLen := reader.Len()

	indicator, err := reader.ReadByte()
	if err != nil {
		return window, errUnexpectedEOF("window indicator", 1)
	}

	validBits := byte(VCDSource | VCDTarget | VCDAdler32)
	if indicator & ^validBits != 0 {
		return window, errInvalidValue("window indicator", startLen-reader.Len()-1, indicator, "reserved bits must be zero")
	}
	if indicator&VCDSource != 0 && indicator&VCDTarget != 0 {
		return window, errInvalidValue("window indicator", startLen-reader.Len()-1, indicator, "VCD_SOURCE and VCD_TARGET are mutually exclusive")
	}

	window.WinIndicator = indicator

	if indicator&(VCDSource|VCDTarget) != 0 {
		sourceSize, err := ReadVarint64(reader)
		if err != nil {
			return window, fmt.Errorf("error reading source segment size: %w", err)
		}
		window.SourceSegmentSize = sourceSize

		sourcePos, err := ReadVarint64(reader)
		if err != nil {
			return window, fmt.Errorf("error reading source segment position: %w", err)
		}
		window.SourceSegmentPosition = sourcePos
	}

	deltaSize, err := ReadVarint64(reader)
	if err != nil {
		return window, fmt.Errorf("error reading length of delta encoding: %w", err)
	}
	window.DeltaEncodingLength = deltaSize

	deltaData := make([]byte, deltaSize)
	if _, err := io.ReadFull(reader, deltaData); err != nil {
		return window, errUnexpectedEOF("delta encoding", int(deltaSize))
	}

	deltaReader := bytes.NewReader(deltaData)

	targetSize, err := ReadVarint64(deltaReader)
	if err != nil {
		return window, fmt.Errorf("error reading target window length: %w", err)
	}
	if targetSize > HardMaxWindowSize {
		return window, fmt.Errorf("%w: target window length %d exceeds maximum %d", ErrInvalidInput, targetSize, HardMaxWindowSize)
	}
	window.TargetWindowLength = targetSize

	deltaIndicator, err := deltaReader.ReadByte()
	if err != nil {
		return window, errUnexpectedEOF("delta indicator", 1)
	}
	if deltaIndicator & ^byte(VCDDataComp|VCDInstComp|VCDAddrComp) != 0 {
		return window, errInvalidValue("delta indicator", 0, deltaIndicator, "reserved bits must be zero")
	}
	window.DeltaIndicator = deltaIndicator

	dataLength, err := ReadVarint64(deltaReader)
	if err != nil {
		return window, fmt.Errorf("error reading data section length: %w", err)
	}
	window.DataSectionLength = dataLength

	instructionLength, err := ReadVarint64(deltaReader)
	if err != nil {
		return window, fmt.Errorf("error reading instruction section length: %w", err)
	}
	window.InstructionSectionLength = instructionLength

	addressLength, err := ReadVarint64(deltaReader)
	if err != nil {
		return window, fmt.Errorf("error reading address section length: %w", err)
	}
	window.AddressSectionLength = addressLength

	expectedEncLen := uint64(VarintLen(targetSize)) + 1 +
		uint64(VarintLen(dataLength)) + uint64(VarintLen(instructionLength)) + uint64(VarintLen(addressLength)) +
		dataLength + instructionLength + addressLength
	if indicator&VCDAdler32 != 0 {
		expectedEncLen += 4
	}
	if expectedEncLen != deltaSize {
		return window, fmt.Errorf("%w: delta encoding length %d does not match header-declared length %d (I3 redundancy check)",
			ErrInvalidInput, expectedEncLen, deltaSize)
	}

	if indicator&VCDAdler32 != 0 {
		window.HasChecksum = true
		checksumBytes := make([]byte, 4)
		if _, err := io.ReadFull(deltaReader, checksumBytes); err != nil {
			return window, errUnexpectedEOF("adler32 checksum", 4)
		}
		window.Checksum = uint32(checksumBytes[0])<<24 |
			uint32(checksumBytes[1])<<16 |
			uint32(checksumBytes[2])<<8 |
			uint32(checksumBytes[3])
	}

	window.DataSection = make([]byte, dataLength)
	if _, err := io.ReadFull(deltaReader, window.DataSection); err != nil {
		return window, errUnexpectedEOF("data section", int(dataLength))
	}

	window.InstructionSection = make([]byte, instructionLength)
	if _, err := io.ReadFull(deltaReader, window.InstructionSection); err != nil {
		return window, errUnexpectedEOF("instruction section", int(instructionLength))
	}

	if addressLength > 0 {
		window.AddressSection = make([]byte, addressLength)
		if _, err := io.ReadFull(deltaReader, window.AddressSection); err != nil {
			return window, errUnexpectedEOF("address section", int(addressLength))
		}
	}

	return window, nil
}

// EncodeWindowHeader serializes window's header and three sections onto
// buf, computing Delta_Encoding_Length (I3: the byte length of everything
// from Target_Window_Length through the end of the address section) from
// the sections actually provided rather than trusting a precomputed value.
func EncodeWindowHeader(buf []byte, window Window) []byte {
	buf = append(buf, window.WinIndicator)

	if window.WinIndicator&(VCDSource|VCDTarget) != 0 {
		buf = WriteVarint64(buf, window.SourceSegmentSize)
		buf = WriteVarint64(buf, window.SourceSegmentPosition)
	}

	var delta []byte
	delta = WriteVarint64(delta, window.TargetWindowLength)
	delta = append(delta, window.DeltaIndicator)
	delta = WriteVarint64(delta, uint64(len(window.DataSection)))
	delta = WriteVarint64(delta, uint64(len(window.InstructionSection)))
	delta = WriteVarint64(delta, uint64(len(window.AddressSection)))

	if window.WinIndicator&VCDAdler32 != 0 {
		delta = append(delta,
			byte(window.Checksum>>24),
			byte(window.Checksum>>16),
			byte(window.Checksum>>8),
			byte(window.Checksum))
	}

	delta = append(delta, window.DataSection...)
	delta = append(delta, window.InstructionSection...)
	delta = append(delta, window.AddressSection...)

	buf = WriteVarint64(buf, uint64(len(delta)))
	buf = append(buf, delta...)

	return buf
}
