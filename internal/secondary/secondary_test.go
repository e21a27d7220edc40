package secondary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func compressibleData(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 4)
	}
	return out
}

func TestNoCompressionPassthrough(t *testing.T) {
	nc := NoCompression{}
	data := []byte("hello world")

	out, compressed, err := CompressSection(nc, data)
	require.NoError(t, err)
	require.False(t, compressed)
	require.Equal(t, data, out)
}

func TestCompressSectionSkipsSmallData(t *testing.T) {
	out, compressed, err := CompressSection(LZMABackend{}, []byte("tiny"))
	require.NoError(t, err)
	require.False(t, compressed)
	require.Equal(t, []byte("tiny"), out)
}

func TestCompressSectionKeepsOnlyIfSmaller(t *testing.T) {
	for _, backend := range []Backend{LZMABackend{}, NewZlibBackend(6)} {
		data := compressibleData(4096)
		out, compressed, err := CompressSection(backend, data)
		require.NoError(t, err)
		require.True(t, compressed, "%T should compress a 4KB repeating pattern", backend)
		require.Less(t, len(out), len(data))

		back, err := DecompressSection(backend, out)
		require.NoError(t, err)
		require.True(t, bytes.Equal(back, data))
	}
}

func TestCompressDecompressSectionsRoundtrip(t *testing.T) {
	for _, backend := range []Backend{LZMABackend{}, NewZlibBackend(6)} {
		data := compressibleData(1000)
		inst := compressibleData(600)
		addr := compressibleData(500)

		outData, outInst, outAddr, ind, err := CompressSections(backend, data, inst, addr)
		require.NoError(t, err)
		require.NotZero(t, ind)

		gotData, gotInst, gotAddr, err := DecompressSections(outData, outInst, outAddr, ind, backend.ID(), true)
		require.NoError(t, err)
		require.Equal(t, data, gotData)
		require.Equal(t, inst, gotInst)
		require.Equal(t, addr, gotAddr)
	}
}

func TestDecompressSectionsNoCompressionBits(t *testing.T) {
	data, inst, addr := []byte("a"), []byte("b"), []byte("c")
	outData, outInst, outAddr, err := DecompressSections(data, inst, addr, 0, 0, false)
	require.NoError(t, err)
	require.Equal(t, data, outData)
	require.Equal(t, inst, outInst)
	require.Equal(t, addr, outAddr)
}

func TestDecompressSectionsMissingSecondaryID(t *testing.T) {
	_, _, _, err := DecompressSections([]byte("x"), nil, nil, 0x01, 0, false)
	require.Error(t, err)
}

func TestBackendForIDUnknown(t *testing.T) {
	_, err := BackendForID(99, true)
	require.Error(t, err)
}

func TestBackendForIDDispatch(t *testing.T) {
	b, err := BackendForID(IDLZMA, true)
	require.NoError(t, err)
	require.Equal(t, byte(IDLZMA), b.ID())

	b, err = BackendForID(IDZlib, true)
	require.NoError(t, err)
	require.Equal(t, byte(IDZlib), b.ID())
}
