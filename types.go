package vcdiff

// VCDIFF magic bytes and version - RFC 3284 Section 4.1
const (
	VCDIFFMagic1  = 0xD6 // First magic byte: 'V' with high bit set
	VCDIFFMagic2  = 0xC3 // Second magic byte: 'C' with high bit set
	VCDIFFMagic3  = 0xC4 // Third magic byte: 'D' with high bit set
	VCDIFFVersion = 0x00 // Version 0 as defined in RFC 3284
)

// VCDIFFMagic is the expected magic number sequence - RFC 3284 Section 4.1
var VCDIFFMagic = [3]byte{VCDIFFMagic1, VCDIFFMagic2, VCDIFFMagic3}

// Header indicator flags - RFC 3284 Section 4.1
const (
	VCDDecompress = 0x01 // VCD_DECOMPRESS: secondary compression used
	VCDCodetable  = 0x02 // VCD_CODETABLE: custom instruction table used
	VCDAppHeader  = 0x04 // VCD_APPHEADER: application header present

	// vcdInvHdr masks out any bit beyond the three defined above; a file
	// with reserved header bits set is rejected rather than silently
	// accepted, per RFC 3284 Section 4.1 and spec invariant I2.
	vcdInvHdr = ^byte(0x07)
)

// Window indicator flags - RFC 3284 Section 4.2
const (
	VCDSource  = 0x01 // VCD_SOURCE: window uses source data
	VCDTarget  = 0x02 // VCD_TARGET: window uses target data
	VCDAdler32 = 0x04 // VCD_ADLER32: window includes Adler-32 checksum (non-standard extension)

	vcdInvWin = ^byte(0x07)
)

// Delta indicator flags (compressed section bits) - RFC 3284 Section 4.3
const (
	VCDDataComp = 0x01 // VCD_DATACOMP: data section is secondary-compressed
	VCDInstComp = 0x02 // VCD_INSTCOMP: instructions section is secondary-compressed
	VCDAddrComp = 0x04 // VCD_ADDRCOMP: address section is secondary-compressed

	vcdInvDel = ^byte(0x07)
)

// Standard secondary compressor IDs - RFC 3284 Section 8
const (
	SecondaryDJW  = 1 // VCD_DJW_ID: standard RFC 3284 Huffman compressor (unimplemented here)
	SecondaryLZMA = 2 // VCD_LZMA_ID: not part of RFC 3284, widely used by xdelta3
	SecondaryZlib = 3 // non-standard extension: deflate/zlib, cheap and always available
	SecondaryFGK  = 16

	// SecondaryNone designates the absence of a secondary compressor; it
	// is never written to the wire, only used as an internal sentinel.
	SecondaryNone = 0
)

// HardMaxWindowSize bounds a single target window's length. xdelta3 enforces
// this 2^24 ceiling regardless of requested window size.
const HardMaxWindowSize = 1 << 24

// Variable-length integer encoding constants - RFC 3284 Section 2
const (
	VarintContinuationBit = 0x80 // High bit indicates continuation
	VarintValueMask       = 0x7F // Mask for 7-bit value portion
	VarintMaxShift        = 32   // Maximum shift to prevent overflow (32-bit decode path)
	VarintShiftIncrement  = 7    // Bits to shift for each byte
)

// Single-instruction code ranges of the default code table - RFC 3284
// Section 5.6; codes 163-255 are double (ADD+COPY, COPY+ADD) codes.
const (
	RunInstructionMin  = 0   // RUN instruction: 0
	RunInstructionMax  = 0   // RUN instruction: 0
	AddInstructionMin  = 1   // ADD instructions: 1-18
	AddInstructionMax  = 18  // ADD instructions: 1-18
	CopyInstructionMin = 19  // COPY instructions: 19-162
	CopyInstructionMax = 162 // COPY instructions: 19-162
)

// Address cache configuration - RFC 3284 Section 5.3
const (
	NearCacheSize        = 4   // Size of "near" address cache
	SameCacheSize        = 3   // Number of 256-entry "same" cache blocks
	InstructionTableSize = 256 // Size of instruction code table
)

// File format validation constants
const (
	MinimumFileSize = 4 // Minimum VCDIFF file size (magic + version)
)

const (
	VCDAdd = iota
	VCDCopy
	VCDRun
	VCDNoop
)

// Header is the four-byte VCDIFF file header, plus the decoded contents of
// whichever optional sections its indicator bits announce.
type Header struct {
	Magic     [3]byte
	Version   byte
	Indicator byte

	// SecondaryID is the secondary compressor identifier, present only
	// when Indicator&VCDDecompress != 0.
	SecondaryID byte

	// CodeTableData holds a custom compressed code table, present only
	// when Indicator&VCDCodetable != 0. This implementation always
	// rejects a custom code table (see SPEC_FULL.md §1);
	// the field exists so a parse-only consumer (the `parse`/`analyze`
	// CLI verbs) can still report its length.
	CodeTableData []byte

	// AppHeader is an opaque, application-defined byte string, present
	// only when Indicator&VCDAppHeader != 0. Passed through unchanged.
	AppHeader []byte
}

// Window is one decoded VCDIFF window: its header fields plus the three
// sections RFC 3284 Section 4.3 lays out. DecodeWindowHeader leaves the
// sections in their on-wire (possibly secondary-compressed) form;
// ParseDeltaHeader replaces them with their decompressed bytes. Addresses and lengths are uint64 throughout — source and target
// streams are not bounded to 32 bits, even though any single window's
// target length is capped at HardMaxWindowSize.
type Window struct {
	WinIndicator             byte   // Win_Indicator - RFC 3284 Section 4.2
	SourceSegmentSize        uint64 // Source segment size - RFC 3284 Section 4.2
	SourceSegmentPosition    uint64 // Source segment position - RFC 3284 Section 4.2
	TargetWindowLength       uint64 // Length of the target window - RFC 3284 Section 4.3
	DeltaEncodingLength      uint64 // Length of the delta encoding - RFC 3284 Section 4.3
	DeltaIndicator           byte   // Delta_Indicator - RFC 3284 Section 4.3
	DataSectionLength        uint64 // Length of data for ADDs and RUNs - RFC 3284 Section 4.3
	InstructionSectionLength uint64 // Length of instructions section - RFC 3284 Section 4.3
	AddressSectionLength     uint64 // Length of addresses for COPYs - RFC 3284 Section 4.3
	DataSection              []byte // Data section for ADDs and RUNs - RFC 3284 Section 4.3
	InstructionSection       []byte // Instructions and sizes section - RFC 3284 Section 4.3
	AddressSection           []byte // Addresses section for COPYs - RFC 3284 Section 4.3
	Checksum                 uint32 // Adler-32 checksum of target window (VCD_ADLER32 extension)
	HasChecksum              bool   // Whether VCD_ADLER32 bit is set in WinIndicator
}

// LegacyInstruction is the compact on-wire instruction shape used while
// walking a window's instruction section: a code-table entry slot plus the
// size taken from either the table or an explicit varint.
type LegacyInstruction struct {
	Type byte
	Size uint64
	Mode byte
	Addr uint64
	Data []byte
}

type InstructionTable struct {
	Entries [InstructionTableSize]InstructionEntry
}

type InstructionEntry struct {
	Type1 byte
	Size1 byte
	Mode1 byte
	Type2 byte
	Size2 byte
	Mode2 byte
}

type ParsedDelta struct {
	Header       Header
	Windows      []Window
	Instructions []RuntimeInstruction
}
