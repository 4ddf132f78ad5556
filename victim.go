package arclfu

import (
	"github.com/OrlovEvgeny/go-arclfu/internal/segment"
)

// SelectVictim picks the resident key the store must evict to make room for
// incoming. It must be called exactly once per miss while the store is at
// capacity, before the store mutates; the subsequent OnEvicted/OnInserted
// pair completes the replacement.
//
// Pool choice follows the adaptive target: evict from Recency while it
// exceeds p, or when the incoming key is a frequency ghost and Recency sits
// exactly at p. Within the chosen pool the selector samples the least
// recently used candidates and evicts the one with the lowest frequency
// estimate, breaking ties toward the oldest access.
func (e *Engine[K]) SelectVictim(incoming K) (K, error) {
	var zero K
	if e.segs.Total() == 0 {
		return zero, ErrEmptyStore
	}

	// Pre-replacement adaptation: a ghost of the incoming key moves p
	// before the pool choice reads it. The ghost itself is consumed later
	// by OnInserted.
	inFrequencyGhost := false
	if origin, ok := e.ghosts.Contains(incoming); ok {
		e.adapt(origin)
		inFrequencyGhost = origin == segment.Frequency
		e.pendingKey = incoming
		e.pendingSet = true
	}

	recLen := e.segs.Len(segment.Recency)
	p := e.effectiveP()
	fromRecency := float64(recLen) > p ||
		(inFrequencyGhost && float64(recLen) == p && recLen > 0)
	if e.segs.Len(segment.Frequency) == 0 {
		fromRecency = true
	}
	if recLen == 0 {
		fromRecency = false
	}

	pool := segment.Frequency
	if fromRecency {
		pool = segment.Recency
	}
	if victim, ok := e.sampleVictim(pool); ok {
		return victim, nil
	}
	if victim, ok := e.sampleVictim(otherSegment(pool)); ok {
		return victim, nil
	}
	// Fallbacks for desynced state: oldest access overall, then anything.
	if victim, ok := e.segs.GlobalOldest(); ok {
		return victim, nil
	}
	if victim, ok := e.segs.Any(); ok {
		return victim, nil
	}
	return zero, ErrEmptyStore
}

// sampleVictim inspects the sampleSize least-recently-used keys of pool and
// returns the one with the lowest frequency estimate, tie-broken by oldest
// last access. Cost is O(sampleSize) regardless of pool size.
func (e *Engine[K]) sampleVictim(pool segment.Segment) (K, bool) {
	var zero K
	e.sampleBuf = e.segs.Oldest(pool, e.sampleSize, e.sampleBuf[:0])
	if len(e.sampleBuf) == 0 {
		return zero, false
	}

	var (
		victim   K
		bestEst  uint32
		bestTick uint64
		found    bool
	)
	for _, key := range e.sampleBuf {
		tick, ok := e.segs.LastAccess(key)
		if !ok {
			continue
		}
		est := e.freq.Estimate(e.hasher(key))
		if !found || est < bestEst || (est == bestEst && tick < bestTick) {
			victim, bestEst, bestTick, found = key, est, tick, true
		}
	}
	return victim, found
}

func otherSegment(seg segment.Segment) segment.Segment {
	if seg == segment.Recency {
		return segment.Frequency
	}
	return segment.Recency
}
