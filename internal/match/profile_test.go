package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigForLevelBoundaries(t *testing.T) {
	cases := []struct {
		level uint32
		name  string
	}{
		{0, "fastest"},
		{1, "fastest"},
		{2, "faster"},
		{3, "fast"},
		{5, "fast"},
		{6, "default"},
		{7, "slow"},
		{9, "slow"},
		{100, "slow"},
	}
	for _, c := range cases {
		got := ConfigForLevel(c.level)
		require.Equal(t, c.name, got.Name, "level %d", c.level)
	}
}

func TestConfigsHaveSaneBounds(t *testing.T) {
	for _, cfg := range []Config{Fastest, Faster, Fast, Default, Slow} {
		require.Positive(t, cfg.LargeLook)
		require.Positive(t, cfg.LargeStep)
		require.Positive(t, cfg.SmallLook)
		require.GreaterOrEqual(t, cfg.SmallChain, 1)
	}
}
