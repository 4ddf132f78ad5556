package arclfu

import (
	"errors"
	"math/rand"
	"testing"
)

// harness drives an engine through the store hook protocol without a real
// value store: a set of resident keys plus the miss/eviction bookkeeping a
// store performs.
type harness struct {
	t        *testing.T
	engine   *Engine[int]
	resident map[int]struct{}
	victims  []int
}

func newHarness(t *testing.T, capacity int, opts ...Option[int]) *harness {
	t.Helper()
	engine, err := NewEngine[int](capacity, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &harness{
		t:        t,
		engine:   engine,
		resident: make(map[int]struct{}, capacity),
	}
}

// access performs one logical cache access and returns true on a hit.
func (h *harness) access(key int) bool {
	if _, ok := h.resident[key]; ok {
		h.engine.OnHit(key)
		return true
	}
	if len(h.resident) >= h.engine.Capacity() {
		victim, err := h.engine.SelectVictim(key)
		if err != nil {
			h.t.Fatalf("SelectVictim(%d): %v", key, err)
		}
		if _, ok := h.resident[victim]; !ok {
			h.t.Fatalf("SelectVictim(%d) returned non-resident %d", key, victim)
		}
		delete(h.resident, victim)
		h.engine.OnEvicted(victim)
		h.victims = append(h.victims, victim)
	}
	h.resident[key] = struct{}{}
	h.engine.OnInserted(key)
	return false
}

// checkInvariants verifies the structural invariants the engine promises
// after every completed access.
func (h *harness) checkInvariants() {
	h.t.Helper()
	e := h.engine

	if got, want := e.Len(), len(h.resident); got != want {
		h.t.Fatalf("engine tracks %d residents, store holds %d", got, want)
	}
	for key := range h.resident {
		if _, tracked := e.segs.Contains(key); !tracked {
			h.t.Fatalf("resident key %d untracked by engine", key)
		}
		if _, ghosted := e.ghosts.Contains(key); ghosted {
			h.t.Fatalf("resident key %d also present in ghost history", key)
		}
	}
	if rec, freq := e.segs.Len(0), e.segs.Len(1); rec+freq != e.Len() {
		h.t.Fatalf("pool sizes %d+%d do not sum to %d", rec, freq, e.Len())
	}
	if bound := 2 * e.Capacity(); e.ghosts.Len() > bound {
		h.t.Fatalf("ghost history %d exceeds bound %d", e.ghosts.Len(), bound)
	}
	if p := e.P(); p < 0 || p > float64(e.Capacity()) {
		h.t.Fatalf("p = %v outside [0, %d]", p, e.Capacity())
	}
}

func TestNewEngineRejectsInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewEngine[string](capacity); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewEngine(%d): err = %v, want ErrInvalidCapacity", capacity, err)
		}
	}
}

func TestSelectVictimEmpty(t *testing.T) {
	engine, err := NewEngine[string](4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.SelectVictim("x"); !errors.Is(err, ErrEmptyStore) {
		t.Errorf("SelectVictim on empty engine: err = %v, want ErrEmptyStore", err)
	}
}

func TestInvariantsUnderMixedTrace(t *testing.T) {
	h := newHarness(t, 32)
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 10000; i++ {
		var key int
		switch rng.Intn(3) {
		case 0: // hot set
			key = rng.Intn(16)
		case 1: // warm set
			key = 16 + rng.Intn(64)
		default: // cold long tail
			key = 1000 + rng.Intn(5000)
		}
		h.access(key)
		h.checkInvariants()
	}
}

func TestInvariantsUnderSequentialScan(t *testing.T) {
	h := newHarness(t, 16)
	for i := 0; i < 500; i++ {
		h.access(i)
		h.checkInvariants()
	}
}

func TestDeterministicReplay(t *testing.T) {
	trace := make([]int, 5000)
	rng := rand.New(rand.NewSource(42))
	for i := range trace {
		trace[i] = rng.Intn(100)
	}

	run := func() ([]int, MetricsSnapshot) {
		h := newHarness(t, 24, WithSeed[int](7))
		for _, key := range trace {
			h.access(key)
		}
		return h.victims, h.engine.Metrics()
	}

	victimsA, metricsA := run()
	victimsB, metricsB := run()

	if len(victimsA) != len(victimsB) {
		t.Fatalf("victim counts differ: %d vs %d", len(victimsA), len(victimsB))
	}
	for i := range victimsA {
		if victimsA[i] != victimsB[i] {
			t.Fatalf("victim sequences diverge at %d: %d vs %d", i, victimsA[i], victimsB[i])
		}
	}
	if metricsA != metricsB {
		t.Errorf("metrics diverge: %+v vs %+v", metricsA, metricsB)
	}
}

func TestHitPromotesToFrequency(t *testing.T) {
	h := newHarness(t, 4)

	h.access(1)
	if seg, _ := h.engine.segs.Contains(1); seg.String() != "recency" {
		t.Fatalf("cold admission landed in %v, want recency", seg)
	}
	h.access(1)
	if seg, _ := h.engine.segs.Contains(1); seg.String() != "frequency" {
		t.Fatalf("key after hit sits in %v, want frequency", seg)
	}
}

func TestGhostHitAdaptsTarget(t *testing.T) {
	h := newHarness(t, 4)

	// Fill and overflow so an eviction from Recency produces a ghost.
	for i := 0; i < 5; i++ {
		h.access(i)
	}
	if len(h.victims) != 1 {
		t.Fatalf("expected 1 eviction, got %d", len(h.victims))
	}
	evicted := h.victims[0]

	before := h.engine.P()
	h.access(evicted)
	if h.engine.P() <= before {
		t.Errorf("recency-ghost hit left p at %v (was %v), want growth", h.engine.P(), before)
	}
	snap := h.engine.Metrics()
	if snap.RecencyGhostHits != 1 {
		t.Errorf("RecencyGhostHits = %d, want 1", snap.RecencyGhostHits)
	}
	// The returning ghost is re-admitted into the frequency pool.
	if seg, ok := h.engine.segs.Contains(evicted); !ok || seg.String() != "frequency" {
		t.Errorf("returning ghost in %v (tracked=%v), want frequency", seg, ok)
	}
}

func TestGhostHitAdaptsOnce(t *testing.T) {
	h := newHarness(t, 4)
	for i := 0; i < 5; i++ {
		h.access(i)
	}
	evicted := h.victims[0]

	// Replay the full miss protocol by hand and verify p moves only once
	// even though both SelectVictim and OnInserted observe the ghost.
	e := h.engine
	victim, err := e.SelectVictim(evicted)
	if err != nil {
		t.Fatal(err)
	}
	afterSelect := e.P()
	delete(h.resident, victim)
	e.OnEvicted(victim)
	h.resident[evicted] = struct{}{}
	e.OnInserted(evicted)

	if e.P() != afterSelect {
		t.Errorf("p moved again in OnInserted: %v -> %v", afterSelect, e.P())
	}
}

func TestForgetLeavesNoGhost(t *testing.T) {
	h := newHarness(t, 4)
	h.access(1)
	h.engine.Forget(1)
	delete(h.resident, 1)

	if h.engine.Len() != 0 {
		t.Fatalf("Len = %d after Forget, want 0", h.engine.Len())
	}
	if _, ok := h.engine.ghosts.Contains(1); ok {
		t.Error("explicit delete must not leave a ghost entry")
	}
}

func TestResyncAdoptsAndDrops(t *testing.T) {
	engine, err := NewEngine[int](8)
	if err != nil {
		t.Fatal(err)
	}
	engine.OnInserted(1)
	engine.OnInserted(2)

	// Store truth: 2 is gone, 3 appeared behind the engine's back.
	engine.Resync([]int{2, 3})

	if engine.Len() != 2 {
		t.Fatalf("Len = %d after resync, want 2", engine.Len())
	}
	if _, tracked := engine.segs.Contains(1); tracked {
		t.Error("stale key 1 survived resync")
	}
	if _, tracked := engine.segs.Contains(3); !tracked {
		t.Error("adopted key 3 missing after resync")
	}
	if snap := engine.Metrics(); snap.Resyncs != 1 {
		t.Errorf("Resyncs = %d, want 1", snap.Resyncs)
	}
}

func TestUntrackedHitAdopted(t *testing.T) {
	engine, err := NewEngine[int](4)
	if err != nil {
		t.Fatal(err)
	}
	engine.OnHit(42)
	if engine.Len() != 1 {
		t.Fatalf("Len = %d after untracked hit, want 1", engine.Len())
	}
	if snap := engine.Metrics(); snap.Resyncs != 1 {
		t.Errorf("Resyncs = %d, want 1", snap.Resyncs)
	}
}

func TestUntrackedEvictionStillGhosts(t *testing.T) {
	engine, err := NewEngine[int](4)
	if err != nil {
		t.Fatal(err)
	}
	engine.OnEvicted(7)
	if _, ok := engine.ghosts.Contains(7); !ok {
		t.Error("eviction of untracked key must still record a ghost")
	}
	if snap := engine.Metrics(); snap.Resyncs != 1 {
		t.Errorf("Resyncs = %d, want 1", snap.Resyncs)
	}
}

func TestEnsureCapacityResets(t *testing.T) {
	engine, err := NewEngine[int](4)
	if err != nil {
		t.Fatal(err)
	}
	engine.OnInserted(1)

	engine.EnsureCapacity(4) // no-op
	if engine.Len() != 1 {
		t.Fatalf("matching capacity reset state: Len = %d", engine.Len())
	}

	engine.EnsureCapacity(8)
	if engine.Capacity() != 8 {
		t.Errorf("Capacity = %d, want 8", engine.Capacity())
	}
	if engine.Len() != 0 {
		t.Errorf("Len = %d after capacity change, want 0", engine.Len())
	}
	if snap := engine.Metrics(); snap.Resets != 1 {
		t.Errorf("Resets = %d, want 1", snap.Resets)
	}

	engine.EnsureCapacity(-3) // invalid, absorbed
	if engine.Capacity() != 8 {
		t.Errorf("invalid capacity report changed capacity to %d", engine.Capacity())
	}
}

func TestResetClearsState(t *testing.T) {
	h := newHarness(t, 4)
	for i := 0; i < 10; i++ {
		h.access(i % 6)
	}
	h.engine.Reset()

	if h.engine.Len() != 0 {
		t.Errorf("Len = %d after reset", h.engine.Len())
	}
	if h.engine.P() != 0 {
		t.Errorf("p = %v after reset", h.engine.P())
	}
	if h.engine.ghosts.Len() != 0 {
		t.Errorf("ghosts = %d after reset", h.engine.ghosts.Len())
	}
}

func TestScanGuardOpensAndCloses(t *testing.T) {
	const capacity = 16
	h := newHarness(t, capacity)

	// A cold streak just past capacity/2 opens the guard.
	for i := 0; i <= capacity/2; i++ {
		h.access(1000 + i)
	}
	if !h.engine.Guarded() {
		t.Fatal("guard closed right after the threshold streak")
	}
	if snap := h.engine.Metrics(); snap.ScanGuards != 1 {
		t.Fatalf("ScanGuards = %d, want 1", snap.ScanGuards)
	}

	// Any warm access closes it immediately.
	h.access(1000)
	if h.engine.Guarded() {
		t.Error("guard still open after a warm access")
	}

	// Left alone, a fresh guard also expires on its own after the window.
	for i := 0; i <= capacity/2; i++ {
		h.access(2000 + i)
	}
	if !h.engine.Guarded() {
		t.Fatal("second streak did not reopen the guard")
	}
	for i := 0; i < capacity; i++ {
		h.access(3000 + i)
	}
	// The streak kept running cold, but the window itself is bounded, so
	// the guard must have lapsed and reopened rather than stayed pinned.
	if snap := h.engine.Metrics(); snap.ScanGuards < 3 {
		t.Errorf("ScanGuards = %d, want >= 3 across repeated streaks", snap.ScanGuards)
	}
}

func TestGuardedAdmissionEvictsScanKeysFirst(t *testing.T) {
	const capacity = 16
	h := newHarness(t, capacity, WithHotBypassThreshold[int](0))

	// Build a warm working set in the frequency pool.
	for round := 0; round < 3; round++ {
		for i := 0; i < capacity; i++ {
			h.access(i)
		}
	}
	// Long one-shot scan. Under the guard, scan keys queue at the Recency
	// LRU end and evict each other.
	for i := 0; i < 10*capacity; i++ {
		h.access(10000 + i)
	}
	survivors := 0
	for i := 0; i < capacity; i++ {
		if _, ok := h.resident[i]; ok {
			survivors++
		}
	}
	if survivors < capacity/2 {
		t.Errorf("only %d/%d working-set keys survived the scan", survivors, capacity)
	}
}

func TestHotBypass(t *testing.T) {
	engine, err := NewEngine[int](8, WithHotBypassThreshold[int](3))
	if err != nil {
		t.Fatal(err)
	}

	// Inflate key 5's estimate via other keys' miss traffic is not possible;
	// instead cycle the key in and out so the sketch remembers it.
	resident := map[int]struct{}{}
	access := func(key int) {
		if _, ok := resident[key]; ok {
			engine.OnHit(key)
			return
		}
		if len(resident) >= 8 {
			victim, err := engine.SelectVictim(key)
			if err != nil {
				t.Fatal(err)
			}
			delete(resident, victim)
			engine.OnEvicted(victim)
		}
		resident[key] = struct{}{}
		engine.OnInserted(key)
	}

	// Make key 5 frequent, then push it out past the ghost history so its
	// next admission is cold with a high estimate.
	for i := 0; i < 6; i++ {
		access(5)
	}
	engine.Forget(5)
	delete(resident, 5)
	engine.ghosts.Purge()

	access(5)
	if seg, ok := engine.segs.Contains(5); !ok || seg.String() != "frequency" {
		t.Errorf("hot cold-admission landed in %v, want frequency", seg)
	}
	if snap := engine.Metrics(); snap.HotBypasses != 1 {
		t.Errorf("HotBypasses = %d, want 1", snap.HotBypasses)
	}
}

func TestMetricsCounts(t *testing.T) {
	h := newHarness(t, 4)
	h.access(1) // miss
	h.access(1) // hit
	h.access(2) // miss

	snap := h.engine.Metrics()
	if snap.Hits != 1 || snap.Misses != 2 {
		t.Fatalf("hits/misses = %d/%d, want 1/2", snap.Hits, snap.Misses)
	}
	if want := 1.0 / 3.0; snap.HitRatio != want {
		t.Errorf("HitRatio = %v, want %v", snap.HitRatio, want)
	}
}
