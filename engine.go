package arclfu

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/OrlovEvgeny/go-arclfu/internal/ghost"
	"github.com/OrlovEvgeny/go-arclfu/internal/hash"
	"github.com/OrlovEvgeny/go-arclfu/internal/segment"
	"github.com/OrlovEvgeny/go-arclfu/internal/sketch"
)

var (
	// ErrInvalidCapacity is returned by NewEngine for a non-positive capacity.
	ErrInvalidCapacity = errors.New("arclfu: capacity must be positive")

	// ErrEmptyStore is returned by SelectVictim when the engine tracks no
	// residents. It signals a broken hook protocol on the caller's side,
	// not a recoverable runtime condition.
	ErrEmptyStore = errors.New("arclfu: victim requested while no keys are resident")
)

// Engine is the replacement-policy engine for a single cache instance.
// It decides which resident key to evict on a capacity miss and adapts its
// recency/frequency balance online.
//
// The engine holds no values and performs no I/O. It is not internally
// synchronized: a concurrent store must serialize all hook calls behind one
// exclusive lock per engine (see Store), or shard the key space across
// independent engines (see ShardedStore).
type Engine[K comparable] struct {
	capacity int
	cfg      *config[K]
	hasher   func(K) uint64
	log      *slog.Logger
	metrics  *Metrics
	rng      *rand.Rand

	segs   *segment.Manager[K]
	ghosts *ghost.History[K]
	freq   *sketch.Sketch

	// p is the adaptive target size of the recency pool, in [0, capacity].
	p float64

	// ticks is the logical access clock: one tick per OnHit or OnInserted.
	// Wall clock never enters policy decisions, so replays are deterministic.
	ticks        uint64
	lastGhostHit uint64

	scan scanState

	// pendingKey marks a ghost adaptation already applied by SelectVictim,
	// so the OnInserted for the same miss does not adapt twice.
	pendingKey K
	pendingSet bool

	// Hot-bypass budget window.
	bypassMark uint64
	bypassUsed int

	sampleSize int
	sampleBuf  []K
}

// NewEngine creates an engine for a store of the given capacity.
// Capacity is fixed for the life of the engine; see EnsureCapacity.
func NewEngine[K comparable](capacity int, opts ...Option[K]) (*Engine[K], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	cfg := defaultConfig[K]()
	for _, opt := range opts {
		opt(cfg)
	}
	e := &Engine[K]{
		capacity: capacity,
		cfg:      cfg,
		metrics:  newMetrics(),
	}
	e.hasher = cfg.Hasher
	if e.hasher == nil {
		e.hasher = hash.Key[K]
	}
	e.log = cfg.Logger
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	e.init()
	return e, nil
}

// init builds all mutable state from capacity and config. Called from
// NewEngine and again on every full reset.
func (e *Engine[K]) init() {
	c := e.capacity
	cfg := e.cfg

	e.sampleSize = cfg.SampleSize
	if e.sampleSize < 1 {
		e.sampleSize = min(max(c/8, 4), 12)
	}
	ghostRatio := cfg.GhostRatio
	if ghostRatio < 1 {
		ghostRatio = 2
	}
	agePeriod := cfg.AgePeriod
	if agePeriod < 1 {
		agePeriod = 8 * c
	}
	width := cfg.SketchWidth
	if width < 1 {
		width = 4 * c
	}

	e.rng = rand.New(rand.NewSource(cfg.Seed))
	e.segs = segment.NewManager[K](c)
	e.ghosts = ghost.New[K](ghostRatio * c)
	e.freq = sketch.New(width, agePeriod, e.rng)
	e.p = 0
	e.ticks = 0
	e.lastGhostHit = 0
	e.scan = newScanState(c)
	e.pendingSet = false
	e.bypassMark = 0
	e.bypassUsed = 0
	e.sampleBuf = make([]K, 0, e.sampleSize)
}

// OnHit records a cache hit. The key is refreshed to the MRU position of its
// segment; a key hit while in Recency is promoted to Frequency.
func (e *Engine[K]) OnHit(key K) {
	e.ticks++
	e.metrics.incHit()
	e.freq.Increment(e.hasher(key))
	e.scan.noteWarm()

	seg, tracked := e.segs.Contains(key)
	switch {
	case !tracked:
		// The store holds a key the engine never saw. Adopt it into
		// Recency instead of failing.
		e.segs.Insert(key, segment.Recency, e.ticks, true)
		e.metrics.incResync()
	case seg == segment.Recency:
		e.segs.Promote(key, e.ticks)
	default:
		e.segs.Touch(key, e.ticks)
	}
	// A resident key must never remain in the ghost history.
	e.ghosts.Remove(key)
	e.decayIdle()
}

// OnEvicted records that the store physically removed victim. The resident
// entry becomes a ghost tagged with the segment it was evicted from.
func (e *Engine[K]) OnEvicted(victim K) {
	seg, tracked := e.segs.Remove(victim)
	if !tracked {
		seg = segment.Recency
		e.metrics.incResync()
	}
	e.ghosts.Record(victim, seg, e.ticks)
	e.metrics.incEviction()
}

// OnInserted records that the store inserted key after a miss and runs the
// admission controller.
func (e *Engine[K]) OnInserted(key K) {
	e.ticks++
	e.metrics.incMiss()
	h := e.hasher(key)
	e.freq.Increment(h)

	if origin, ok := e.ghosts.Consume(key); ok {
		// Proven reuse: the key was evicted recently and came back.
		if !(e.pendingSet && e.pendingKey == key) {
			e.adapt(origin)
		}
		if origin == segment.Recency {
			e.metrics.incRecencyGhostHit()
		} else {
			e.metrics.incFrequencyGhostHit()
		}
		e.scan.noteWarm()
		e.segs.Insert(key, segment.Frequency, e.ticks, true)
	} else {
		if e.scan.noteCold(e.ticks) {
			e.metrics.incScanGuard()
			e.log.Debug("scan guard opened",
				slog.Uint64("tick", e.ticks),
				slog.Float64("p", e.p))
		}
		e.admitCold(key, h)
	}
	e.pendingSet = false
	e.decayIdle()

	if e.segs.Total() > e.capacity {
		// The store inserted past capacity without evicting first.
		e.log.Warn("resident count exceeds capacity, hook protocol drift",
			slog.Int("residents", e.segs.Total()),
			slog.Int("capacity", e.capacity))
	}
}

// Forget drops a key from all policy state without recording a ghost.
// Stores call this for explicit deletes, which carry no eviction signal.
func (e *Engine[K]) Forget(key K) {
	e.segs.Remove(key)
	e.ghosts.Remove(key)
}

// Resync reconciles the engine against the authoritative resident key set of
// the store. Stale entries are dropped, unknown resident keys are adopted
// into Recency, and ghost disjointness is restored.
func (e *Engine[K]) Resync(resident []K) {
	live := make(map[K]struct{}, len(resident))
	for _, key := range resident {
		live[key] = struct{}{}
	}
	for _, key := range e.segs.Keys(nil) {
		if _, ok := live[key]; !ok {
			e.segs.Remove(key)
		}
	}
	for _, key := range resident {
		if _, tracked := e.segs.Contains(key); !tracked {
			e.segs.Insert(key, segment.Recency, e.ticks, true)
		}
		e.ghosts.Remove(key)
	}
	e.metrics.incResync()
	e.log.Debug("resynced against store key set",
		slog.Int("residents", len(resident)))
}

// EnsureCapacity checks the capacity the store reports against the one the
// engine was built with. A mismatch resets all internal state to the new
// capacity; incremental resize is deliberately unsupported. The mismatch is
// logged and absorbed, never surfaced.
func (e *Engine[K]) EnsureCapacity(capacity int) {
	if capacity == e.capacity {
		return
	}
	if capacity < 1 {
		e.log.Error("ignoring invalid capacity report",
			slog.Int("capacity", capacity))
		return
	}
	e.log.Warn("capacity mismatch, resetting policy state",
		slog.Int("old", e.capacity),
		slog.Int("new", capacity))
	e.capacity = capacity
	e.init()
	e.metrics.incReset()
}

// Reset clears all policy state while keeping capacity and configuration.
func (e *Engine[K]) Reset() {
	e.init()
	e.metrics.incReset()
}

// Capacity returns the store capacity the engine was built with.
func (e *Engine[K]) Capacity() int {
	return e.capacity
}

// Len returns the number of resident keys the engine tracks.
func (e *Engine[K]) Len() int {
	return e.segs.Total()
}

// P returns the current adaptive target size of the recency pool.
func (e *Engine[K]) P() float64 {
	return e.p
}

// Guarded reports whether the scan detector currently holds a guard window
// open.
func (e *Engine[K]) Guarded() bool {
	return e.scan.active(e.ticks)
}

// Metrics returns the engine metrics.
func (e *Engine[K]) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}
