package vcdiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrVarintOverflow is returned when a varint's value would exceed the
// target integer width, or when its continuation bit is never cleared
// within the maximum byte count for that width.
var ErrVarintOverflow = errors.New("vcdiff: varint overflow")

// ErrVarintUnderflow is returned when the input is exhausted before a
// varint's terminating byte is seen.
var ErrVarintUnderflow = errors.New("vcdiff: varint underflow: unexpected end of input")

// ReadVarint reads a variable-length integer as defined in RFC 3284 Section
// 2, narrowed to 32 bits: at most 5 bytes are consumed (ceil(32/7) = 5).
func ReadVarint(reader *bytes.Reader) (uint32, error) {
	startLen := reader.Len()
	var result uint32

	for i := 0; i < 5; i++ {
		b, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("%w: at offset %d", ErrVarintUnderflow, startLen-reader.Len())
			}
			return 0, err
		}

		if result > (uint32(1)<<(32-VarintShiftIncrement))-1 {
			return 0, fmt.Errorf("%w: at offset %d", ErrVarintOverflow, startLen-reader.Len()-1)
		}
		result = (result << VarintShiftIncrement) | uint32(b&VarintValueMask)

		if b&VarintContinuationBit == 0 {
			return result, nil
		}
	}

	return 0, fmt.Errorf("%w: exceeds maximum 5-byte 32-bit encoding at offset %d", ErrVarintOverflow, startLen-reader.Len()-5)
}

// ReadVarint64 reads a full 64-bit varint, consuming at most 10 bytes
// (ceil(64/7) = 10). Used for the address section, which may reference
// offsets beyond the 32-bit range of a single VCDIFF window.
func ReadVarint64(reader *bytes.Reader) (uint64, error) {
	startLen := reader.Len()
	var result uint64

	for i := 0; i < 10; i++ {
		b, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("%w: at offset %d", ErrVarintUnderflow, startLen-reader.Len())
			}
			return 0, err
		}

		// Shifting in another 7 bits must not drop any set high bit.
		if result > (^uint64(0))>>VarintShiftIncrement {
			return 0, fmt.Errorf("%w: at offset %d", ErrVarintOverflow, startLen-reader.Len()-1)
		}
		result = (result << VarintShiftIncrement) | uint64(b&VarintValueMask)

		if b&VarintContinuationBit == 0 {
			return result, nil
		}
	}

	return 0, fmt.Errorf("%w: exceeds maximum 10-byte 64-bit encoding at offset %d", ErrVarintOverflow, startLen-reader.Len()-10)
}

// WriteVarint appends the base-128 big-endian encoding of v to buf and
// returns the extended slice.
func WriteVarint(buf []byte, v uint32) []byte {
	return WriteVarint64(buf, uint64(v))
}

// WriteVarint64 appends the base-128 big-endian encoding of v to buf and
// returns the extended slice. The value is built from the low end of a
// fixed-size scratch array (10 bytes is enough for any uint64), clearing
// the continuation bit only on the final, most-significant byte.
func WriteVarint64(buf []byte, v uint64) []byte {
	var scratch [10]byte
	i := len(scratch)

	i--
	scratch[i] = byte(v & uint64(VarintValueMask))
	v >>= VarintShiftIncrement

	for v > 0 {
		i--
		scratch[i] = byte(v&uint64(VarintValueMask)) | VarintContinuationBit
		v >>= VarintShiftIncrement
	}

	return append(buf, scratch[i:]...)
}

// VarintLen returns the number of bytes WriteVarint64 would emit for v.
func VarintLen(v uint64) int {
	n := 1
	v >>= VarintShiftIncrement
	for v > 0 {
		n++
		v >>= VarintShiftIncrement
	}
	return n
}
