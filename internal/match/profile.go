package match

// Tuning constants shared by every matcher profile.
const (
	// MinMatch is the VCDIFF code table's shortest representable COPY.
	MinMatch = 4
	// MinRun is the shortest run worth encoding as RUN instead of ADD.
	MinRun = 8
	// DefaultWinSize is the default input window size (8 MiB).
	DefaultWinSize = 1 << 23
	// DefaultSPrevSz is the default prev-chain array size (2^18 entries).
	DefaultSPrevSz = 1 << 18
	// DefaultSrcWinSz is the default source window size (64 MiB).
	DefaultSrcWinSz = 1 << 26
	// MaxLRUSize bounds the number of cached source blocks.
	MaxLRUSize = 32
)

// Config holds one matcher profile's tuning parameters, named after
// xdelta3's xd3_smatcher fields.
type Config struct {
	Name        string
	LargeLook   int
	LargeStep   int
	SmallLook   int
	SmallChain  int
	SmallLChain int
	MaxLazy     int
	LongEnough  int
}

var (
	Fastest = Config{Name: "fastest", LargeLook: 9, LargeStep: 26, SmallLook: 4, SmallChain: 1, SmallLChain: 1, MaxLazy: 6, LongEnough: 6}
	Faster  = Config{Name: "faster", LargeLook: 9, LargeStep: 15, SmallLook: 4, SmallChain: 1, SmallLChain: 1, MaxLazy: 18, LongEnough: 18}
	Fast    = Config{Name: "fast", LargeLook: 9, LargeStep: 8, SmallLook: 4, SmallChain: 4, SmallLChain: 1, MaxLazy: 18, LongEnough: 35}
	Default = Config{Name: "default", LargeLook: 9, LargeStep: 3, SmallLook: 4, SmallChain: 8, SmallLChain: 2, MaxLazy: 36, LongEnough: 70}
	Slow    = Config{Name: "slow", LargeLook: 9, LargeStep: 2, SmallLook: 4, SmallChain: 44, SmallLChain: 13, MaxLazy: 90, LongEnough: 70}
)

// ConfigForLevel maps a 0-9 compression level to a profile, following
// xdelta3-main.h's level table: 0-1 fastest, 2 faster, 3-5 fast, 6
// default, 7-9 slow.
func ConfigForLevel(level uint32) Config {
	switch {
	case level <= 1:
		return Fastest
	case level == 2:
		return Faster
	case level >= 3 && level <= 5:
		return Fast
	case level == 6:
		return Default
	default:
		return Slow
	}
}
