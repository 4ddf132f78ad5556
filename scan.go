package arclfu

// scanState is the cold-streak detector. It counts consecutive misses on
// keys unknown to both the resident set and the ghost history; a long
// enough streak opens a time-bounded guard window that biases admission and
// eviction away from the frequency pool, so a one-time sequential scan
// cannot flush a built-up working set.
type scanState struct {
	streak  int
	guarded bool

	// deadline is a logical tick; the guard closes when the clock passes
	// it, or immediately on any warm access.
	deadline  uint64
	threshold int
	window    uint64
	reduce    float64
}

// newScanState derives detector tuning from capacity: guard after
// capacity/2 consecutive cold misses, hold for capacity/4 accesses, and
// lower the effective p by up to capacity/4 while guarded.
func newScanState(capacity int) scanState {
	return scanState{
		threshold: max(capacity/2, 1),
		window:    uint64(max(capacity/4, 1)),
		reduce:    float64(capacity) / 4,
	}
}

// noteWarm records a hit or ghost hit, which ends any streak and closes the
// guard immediately.
func (s *scanState) noteWarm() {
	s.streak = 0
	s.guarded = false
}

// noteCold records a miss on a never-seen key and reports whether this
// access opened a new guard window.
func (s *scanState) noteCold(now uint64) bool {
	s.expire(now)
	s.streak++
	if !s.guarded && s.streak > s.threshold {
		s.guarded = true
		s.deadline = now + s.window
		return true
	}
	return false
}

// active reports whether the guard holds at the given tick.
func (s *scanState) active(now uint64) bool {
	s.expire(now)
	return s.guarded
}

func (s *scanState) expire(now uint64) {
	if s.guarded && now >= s.deadline {
		s.guarded = false
		s.streak = 0
	}
}

// effectiveP returns the recency target the victim selector should use:
// the adaptive p, lowered by a bounded amount while the guard is open.
func (e *Engine[K]) effectiveP() float64 {
	p := e.p
	if e.scan.active(e.ticks) {
		p -= e.scan.reduce
		if p < 0 {
			p = 0
		}
	}
	return p
}
