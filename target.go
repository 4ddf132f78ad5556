package arclfu

import (
	"math"

	"github.com/OrlovEvgeny/go-arclfu/internal/segment"
)

// adapt applies the ARC rule on a ghost hit. A hit in the recency ghost
// means the recency pool was undersized, so p grows; a frequency-ghost hit
// shrinks it symmetrically. The step is the ratio of the opposite ghost to
// the hit ghost, at least 1 and at most stepCap.
func (e *Engine[K]) adapt(origin segment.Segment) {
	recGhost := e.ghosts.SideLen(segment.Recency)
	freqGhost := e.ghosts.SideLen(segment.Frequency)

	var delta float64 = 1
	if origin == segment.Recency {
		if recGhost > 0 {
			delta = math.Ceil(float64(freqGhost) / float64(recGhost))
		}
		e.p += clampStep(delta, e.stepCap())
	} else {
		if freqGhost > 0 {
			delta = math.Ceil(float64(recGhost) / float64(freqGhost))
		}
		e.p -= clampStep(delta, e.stepCap())
	}
	e.clampP()
	e.lastGhostHit = e.ticks
}

// stepCap bounds one adaptation step to keep p from oscillating. A detected
// scan widens the cap so the engine can back out of a scan-skewed p faster.
func (e *Engine[K]) stepCap() float64 {
	div := 8.0
	if e.scan.active(e.ticks) {
		div = 4.0
	}
	return math.Max(1, float64(e.capacity)/div)
}

// decayIdle pulls an inflated p back toward the baseline when ghost hits
// have gone quiet for a full capacity worth of accesses. The pull is
// strictly downward; a p that a workload has driven to zero stays there.
func (e *Engine[K]) decayIdle() {
	if e.ticks-e.lastGhostHit <= uint64(e.capacity) {
		return
	}
	baseline := float64(e.capacity) / 5
	if e.p > baseline {
		e.p = math.Max(baseline, e.p-1)
	}
}

// clampP keeps p inside [0, capacity].
func (e *Engine[K]) clampP() {
	if e.p < 0 {
		e.p = 0
	}
	if c := float64(e.capacity); e.p > c {
		e.p = c
	}
}

func clampStep(delta, limit float64) float64 {
	if delta < 1 {
		delta = 1
	}
	if delta > limit {
		delta = limit
	}
	return delta
}
