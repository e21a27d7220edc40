package vcdiff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDecoder(t *testing.T) {
	decoder := NewDecoder([]byte("hello world"))
	require.NotNil(t, decoder)
}

func TestDecodeEmptyDelta(t *testing.T) {
	_, err := Decode([]byte("hello world"), nil)
	require.Error(t, err)
}

func TestDecodeRoundtripNoSource(t *testing.T) {
	target := []byte("the quick brown fox jumps over the lazy dog")

	delta, err := EncodeAll(nil, target, DefaultEncodeOptions())
	require.NoError(t, err)

	result, err := Decode(nil, delta)
	require.NoError(t, err)
	require.Equal(t, target, result)
}

func TestDecodeRoundtripWithSource(t *testing.T) {
	source := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown fox leaps over the lazy dog and runs away")

	delta, err := EncodeAll(source, target, DefaultEncodeOptions())
	require.NoError(t, err)

	result, err := NewDecoder(source).Decode(delta)
	require.NoError(t, err)
	require.Equal(t, target, result)
}

func TestDecodeFunction(t *testing.T) {
	source := []byte("hello world, hello world, hello world")
	target := []byte("hello world, goodbye world, hello world")

	delta, err := EncodeAll(source, target, DefaultEncodeOptions())
	require.NoError(t, err)

	result, err := Decode(source, delta)
	require.NoError(t, err)
	require.Equal(t, target, result)
}

func TestParseDeltaHeaderRejectsTooShort(t *testing.T) {
	_, err := ParseDeltaHeader([]byte{0x00, 0x00})
	require.Error(t, err)
}

func TestParseDeltaHeaderRejectsBadMagic(t *testing.T) {
	_, err := ParseDeltaHeader([]byte{0xff, 0xff, 0xff, 0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDeltaAlias(t *testing.T) {
	target := []byte("some target bytes to diff with no source at all")
	delta, err := EncodeAll(nil, target, DefaultEncodeOptions())
	require.NoError(t, err)

	parsed, err := ParseDelta(delta)
	require.NoError(t, err)
	require.NotEmpty(t, parsed.Windows)
}
