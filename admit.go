package arclfu

import (
	"github.com/OrlovEvgeny/go-arclfu/internal/segment"
)

// admitCold places a key with no ghost history. The default landing spot is
// the Recency MRU. Under an open scan guard the key enters at the Recency
// LRU end instead, so a streaming burst reclaims its own slots. A key whose
// frequency estimate already clears the hot-bypass threshold goes straight
// to Frequency, within the per-window budget.
func (e *Engine[K]) admitCold(key K, keyHash uint64) {
	if e.ticks-e.bypassMark >= uint64(e.capacity) {
		e.bypassMark = e.ticks
		e.bypassUsed = 0
	}
	if t := e.cfg.HotBypassThreshold; t > 0 &&
		e.freq.Estimate(keyHash) >= t &&
		e.bypassUsed < e.bypassBudget() {
		e.bypassUsed++
		e.metrics.incHotBypass()
		e.segs.Insert(key, segment.Frequency, e.ticks, true)
		return
	}
	front := !e.scan.active(e.ticks)
	e.segs.Insert(key, segment.Recency, e.ticks, front)
}

// bypassBudget returns the hot-bypass cap per capacity-sized window.
func (e *Engine[K]) bypassBudget() int {
	if e.cfg.HotBypassBudget > 0 {
		return e.cfg.HotBypassBudget
	}
	return max(e.capacity/8, 1)
}
