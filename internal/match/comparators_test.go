package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardMatchCountsAgreement(t *testing.T) {
	require.Equal(t, 6, ForwardMatch([]byte("hello world"), []byte("hello there"), 20))
}

func TestForwardMatchCapsAtShorterSlice(t *testing.T) {
	require.Equal(t, 3, ForwardMatch([]byte("abc"), []byte("abcdef"), 20))
}

func TestForwardMatchNoAgreement(t *testing.T) {
	require.Equal(t, 0, ForwardMatch([]byte("xyz"), []byte("abc"), 3))
}

func TestBackwardMatchCountsTrailingAgreement(t *testing.T) {
	require.Equal(t, 3, BackwardMatch([]byte("xxxabc"), []byte("yyyabc"), 6))
}

func TestFindRunLengthCapsAtMax(t *testing.T) {
	require.Equal(t, 4, FindRunLength([]byte("aaaaaaaa"), 'a', 4))
}

func TestFindRunLengthStopsAtMismatch(t *testing.T) {
	require.Equal(t, 3, FindRunLength([]byte("aaabaaa"), 'a', 7))
}

func TestFindRunLengthCapsAtDataLength(t *testing.T) {
	require.Equal(t, 3, FindRunLength([]byte("aaa"), 'a', 100))
}
