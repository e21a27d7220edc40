package vcdiff

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xdelta-go/vcdiff/internal/match"
)

func sumLen(insts []match.Inst) uint64 {
	var n uint64
	for _, i := range insts {
		n += i.Len
	}
	return n
}

func TestOptimizeInstructionsCoalescesAdds(t *testing.T) {
	target := []byte("abcdef")
	in := []match.Inst{
		{Type: match.InstAdd, Len: 3},
		{Type: match.InstAdd, Len: 3},
	}
	out := optimizeInstructions(in, target)
	require.Len(t, out, 1)
	require.Equal(t, match.InstAdd, out[0].Type)
	require.Equal(t, uint64(6), out[0].Len)
}

func TestOptimizeInstructionsCoalescesContiguousCopies(t *testing.T) {
	target := make([]byte, 10)
	in := []match.Inst{
		{Type: match.InstCopy, Len: 4, Addr: 0},
		{Type: match.InstCopy, Len: 6, Addr: 4},
	}
	out := optimizeInstructions(in, target)
	require.Len(t, out, 1)
	require.Equal(t, match.InstCopy, out[0].Type)
	require.Equal(t, uint64(10), out[0].Len)
	require.Equal(t, uint64(0), out[0].Addr)
}

func TestOptimizeInstructionsDoesNotCoalesceDisjointCopies(t *testing.T) {
	target := make([]byte, 10)
	in := []match.Inst{
		{Type: match.InstCopy, Len: 4, Addr: 0},
		{Type: match.InstCopy, Len: 6, Addr: 20},
	}
	out := optimizeInstructions(in, target)
	require.Len(t, out, 2)
}

func TestOptimizeInstructionsDropsZeroLength(t *testing.T) {
	target := []byte("ab")
	in := []match.Inst{
		{Type: match.InstAdd, Len: 0},
		{Type: match.InstAdd, Len: 2},
	}
	out := optimizeInstructions(in, target)
	require.Len(t, out, 1)
	require.Equal(t, uint64(2), out[0].Len)
}

func TestOptimizeInstructionsSplitsInternalRun(t *testing.T) {
	data := append([]byte("AB"), bytesOf('x', 10)...)
	data = append(data, []byte("CD")...)
	in := []match.Inst{{Type: match.InstAdd, Len: uint64(len(data))}}

	out := optimizeInstructions(in, data)

	require.Equal(t, uint64(len(data)), sumLen(out))

	var sawRun bool
	for _, inst := range out {
		if inst.Type == match.InstRun {
			sawRun = true
			require.GreaterOrEqual(t, inst.Len, uint64(match.MinRun))
		}
	}
	require.True(t, sawRun, "expected the 10-byte run of 'x' to be split into a RUN instruction")
}

func TestOptimizeInstructionsPreservesShortRun(t *testing.T) {
	data := []byte("AAABBB") // runs shorter than MinRun stay as ADD
	in := []match.Inst{{Type: match.InstAdd, Len: uint64(len(data))}}
	out := optimizeInstructions(in, data)

	require.Equal(t, uint64(len(data)), sumLen(out))
	for _, inst := range out {
		require.NotEqual(t, match.InstRun, inst.Type)
	}
}

func TestOptimizeInstructionsEmpty(t *testing.T) {
	out := optimizeInstructions(nil, nil)
	require.Nil(t, out)
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
