package secondary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZlibBackendRoundtrip(t *testing.T) {
	backend := NewZlibBackend(6)
	data := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")

	compressed, err := backend.Compress(data)
	require.NoError(t, err)

	decompressed, err := backend.Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestZlibBackendID(t *testing.T) {
	require.Equal(t, byte(IDZlib), NewZlibBackend(6).ID())
}

func TestZlibBackendDifferentLevelsRoundtrip(t *testing.T) {
	data := compressibleData(2048)
	for level := 1; level <= 9; level++ {
		backend := NewZlibBackend(level)
		compressed, err := backend.Compress(data)
		require.NoError(t, err)
		decompressed, err := backend.Decompress(compressed)
		require.NoError(t, err)
		require.True(t, bytes.Equal(data, decompressed), "level %d", level)
	}
}
