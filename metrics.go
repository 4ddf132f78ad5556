package arclfu

import "sync/atomic"

// Metrics holds engine statistics. Counters are atomic so that snapshots can
// be taken concurrently with a store that serializes the engine hooks.
type Metrics struct {
	hits               atomic.Int64 // Accesses reported via OnHit
	misses             atomic.Int64 // Accesses reported via OnInserted
	evictions          atomic.Int64 // Victims handed to OnEvicted
	recencyGhostHits   atomic.Int64 // Misses recovered from the recency ghost
	frequencyGhostHits atomic.Int64 // Misses recovered from the frequency ghost
	scanGuards         atomic.Int64 // Guard windows opened by the scan detector
	hotBypasses        atomic.Int64 // Cold admissions routed straight to Frequency
	resyncs            atomic.Int64 // Self-healing events for external desync
	resets             atomic.Int64 // Full state resets (capacity mismatch or explicit)
}

// MetricsSnapshot is a point-in-time snapshot of engine metrics.
type MetricsSnapshot struct {
	Hits               int64   // Total hits
	Misses             int64   // Total misses
	Evictions          int64   // Total evictions
	RecencyGhostHits   int64   // Misses found in the recency ghost
	FrequencyGhostHits int64   // Misses found in the frequency ghost
	ScanGuards         int64   // Guard windows opened
	HotBypasses        int64   // Hot-bypass admissions
	Resyncs            int64   // Self-healing events
	Resets             int64   // Full state resets
	HitRatio           float64 // Hits / (Hits + Misses)
}

// newMetrics creates a new Metrics instance.
func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) incHit() { m.hits.Add(1) }
func (m *Metrics) incMiss() { m.misses.Add(1) }
func (m *Metrics) incEviction() { m.evictions.Add(1) }
func (m *Metrics) incRecencyGhostHit() { m.recencyGhostHits.Add(1) }
func (m *Metrics) incFrequencyGhostHit() { m.frequencyGhostHits.Add(1) }
func (m *Metrics) incScanGuard() { m.scanGuards.Add(1) }
func (m *Metrics) incHotBypass() { m.hotBypasses.Add(1) }
func (m *Metrics) incResync() { m.resyncs.Add(1) }
func (m *Metrics) incReset() { m.resets.Add(1) }

// Snapshot returns a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	hits := m.hits.Load()
	misses := m.misses.Load()
	total := hits + misses

	var hitRatio float64
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:               hits,
		Misses:             misses,
		Evictions:          m.evictions.Load(),
		RecencyGhostHits:   m.recencyGhostHits.Load(),
		FrequencyGhostHits: m.frequencyGhostHits.Load(),
		ScanGuards:         m.scanGuards.Load(),
		HotBypasses:        m.hotBypasses.Load(),
		Resyncs:            m.resyncs.Load(),
		Resets:             m.resets.Load(),
		HitRatio:           hitRatio,
	}
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.evictions.Store(0)
	m.recencyGhostHits.Store(0)
	m.frequencyGhostHits.Store(0)
	m.scanGuards.Store(0)
	m.hotBypasses.Store(0)
	m.resyncs.Store(0)
	m.resets.Store(0)
}
