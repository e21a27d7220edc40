package vcdiff

import (
	"errors"
	"fmt"
)

// Error categories. Decode can fail for any of these reasons; encode can
// only ever fail with ErrIo, since it never has to trust untrusted input.
var (
	// ErrIo wraps an underlying io.Reader/io.Writer failure.
	ErrIo = errors.New("vcdiff: i/o error")

	// ErrInvalidInput covers anything structurally wrong with a delta:
	// a bad magic number, reserved bits set, a truncated section, an
	// out-of-range COPY address, and so on.
	ErrInvalidInput = errors.New("vcdiff: invalid input")

	// ErrChecksumMismatch is returned when a window carries a VCD_ADLER32
	// checksum that does not match its decoded target bytes.
	ErrChecksumMismatch = errors.New("vcdiff: checksum mismatch")

	// ErrUnsupported covers well-formed input this implementation does
	// not support: a custom (VCD_CODETABLE) instruction table, or a
	// secondary compressor ID this build has no backend for.
	ErrUnsupported = errors.New("vcdiff: unsupported feature")
)

// Legacy sentinels retained from the original decoder; they now alias the
// category errors above so existing comparisons via errors.Is keep working.
var (
	ErrInvalidMagic    = fmt.Errorf("%w: invalid magic bytes", ErrInvalidInput)
	ErrInvalidVersion  = fmt.Errorf("%w: unsupported version", ErrInvalidInput)
	ErrInvalidFormat   = fmt.Errorf("%w: malformed delta", ErrInvalidInput)
	ErrCorruptedData   = fmt.Errorf("%w: corrupted data", ErrInvalidInput)
	ErrInvalidChecksum = ErrChecksumMismatch
)

func errUnexpectedEOF(context string, bytesNeeded int) error {
	return fmt.Errorf("%w: unexpected EOF while reading %s: need %d bytes", ErrInvalidInput, context, bytesNeeded)
}

func errDataOverrun(instruction string, offset int, needed int, available int) error {
	return fmt.Errorf("%w: %s instruction at offset %d requires %d bytes but only %d available in data section",
		ErrInvalidInput, instruction, offset, needed, available)
}

func errInvalidValue(field string, offset int, value interface{}, reason string) error {
	return fmt.Errorf("%w: invalid %s at offset %d: value %v, %s", ErrInvalidInput, field, offset, value, reason)
}

func errOutOfBounds(instruction string, address uint64, size uint64, maxBound uint64) error {
	return fmt.Errorf("%w: %s instruction address %d + size %d exceeds bounds (max %d)",
		ErrInvalidInput, instruction, address, size, maxBound)
}

// ChecksumError reports the expected and actual Adler-32 values for a
// window that failed verification.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("vcdiff: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// EncodeError wraps a failure from the encoder; per spec, encoding never
// fails on account of its own input, only on I/O.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("vcdiff: encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return errors.Join(ErrIo, e.Err)
}
