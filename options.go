package arclfu

import "log/slog"

// config holds the tuning knobs for an Engine instance. Zero values mean
// "derive from capacity" and are resolved in NewEngine.
type config[K comparable] struct {
	SampleSize int // Victim sample size (0 = clamp(capacity/8, 4, 12))

	GhostRatio int // Ghost bound as a multiple of capacity (default 2)

	AgePeriod   int // Sketch aging period in increments (0 = 8*capacity)
	SketchWidth int // Counters per sketch row (0 = 4*capacity, min 256)

	HotBypassThreshold uint32 // Sketch estimate that admits a cold key straight to Frequency
	HotBypassBudget    int    // Max hot bypasses per capacity-sized window (0 = capacity/8)

	Seed int64 // PRNG seed for sketch row seeds (default 1)

	Hasher func(K) uint64 // Custom key hasher
	Logger *slog.Logger   // Logger for absorbed anomalies (default discard)
}

// Option is a function that configures an Engine.
type Option[K comparable] func(*config[K])

// defaultConfig returns the default configuration.
func defaultConfig[K comparable]() *config[K] {
	return &config[K]{
		GhostRatio:         2,
		HotBypassThreshold: 5,
		Seed:               1,
	}
}

// WithSampleSize sets how many least-recently-used candidates the victim
// selector inspects per eviction. Larger samples track frequency better at
// the cost of extra estimate lookups. Default is capacity/8 clamped to [4, 12].
func WithSampleSize[K comparable](n int) Option[K] {
	return func(c *config[K]) {
		c.SampleSize = n
	}
}

// WithGhostRatio sets the combined ghost history bound as a multiple of
// capacity. 1 gives classic ARC history; 2 (the default) also catches cyclic
// patterns slightly larger than the cache.
func WithGhostRatio[K comparable](ratio int) Option[K] {
	return func(c *config[K]) {
		c.GhostRatio = ratio
	}
}

// WithAgePeriod sets how many sketch increments pass between aging events,
// where every frequency counter is halved. Default is 8x capacity.
func WithAgePeriod[K comparable](n int) Option[K] {
	return func(c *config[K]) {
		c.AgePeriod = n
	}
}

// WithSketchWidth sets the number of counters per sketch row. Rounded up to
// a power of two, minimum 256. Default is 4x capacity.
func WithSketchWidth[K comparable](n int) Option[K] {
	return func(c *config[K]) {
		c.SketchWidth = n
	}
}

// WithHotBypassThreshold sets the sketch estimate at which a cold admission
// skips the recency pool and enters Frequency directly. A threshold of 0
// disables the bypass.
func WithHotBypassThreshold[K comparable](est uint32) Option[K] {
	return func(c *config[K]) {
		c.HotBypassThreshold = est
	}
}

// WithHotBypassBudget caps how many hot bypasses may happen per
// capacity-sized access window, preventing the frequency pool from flooding.
// Default is capacity/8, minimum 1.
func WithHotBypassBudget[K comparable](n int) Option[K] {
	return func(c *config[K]) {
		c.HotBypassBudget = n
	}
}

// WithSeed sets the PRNG seed used to derive sketch row seeds. Engines built
// with the same capacity, options and seed replay identical victim sequences
// for identical traces.
func WithSeed[K comparable](seed int64) Option[K] {
	return func(c *config[K]) {
		c.Seed = seed
	}
}

// WithKeyHasher sets a custom key hasher. If not set, a default hasher is
// chosen based on the key type.
func WithKeyHasher[K comparable](fn func(K) uint64) Option[K] {
	return func(c *config[K]) {
		c.Hasher = fn
	}
}

// WithLogger sets the logger for absorbed anomalies (capacity resets,
// resync passes). The engine never logs on the hit or eviction hot path.
func WithLogger[K comparable](log *slog.Logger) Option[K] {
	return func(c *config[K]) {
		c.Logger = log
	}
}
