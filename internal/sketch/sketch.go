// Package sketch provides a compact, decaying frequency estimator in the
// TinyLFU style: a Count-Min sketch with conservative updates and periodic
// halving, fronted by a bloom doorkeeper that absorbs one-hit wonders.
package sketch

import (
	"math/rand"

	"github.com/OrlovEvgeny/go-arclfu/internal/hash"
)

const (
	// depth is the number of independent counter rows.
	depth = 4
	// maxCount is the saturation point of a counter.
	maxCount = 255
)

// Sketch estimates per-key access counts from hashed keys only. Estimates may
// overestimate under collisions, never underestimate.
type Sketch struct {
	rows  [depth][]uint8
	seeds [depth]uint64
	mask  uint64
	door  *doorkeeper

	ops       uint64
	agePeriod uint64
}

// New creates a sketch with at least width counters per row (rounded up to a
// power of two, minimum 256). Every agePeriod increments all counters are
// halved and the doorkeeper is cleared. Row seeds come from rng so that a
// seeded engine replays identically.
func New(width int, agePeriod int, rng *rand.Rand) *Sketch {
	w := uint64(256)
	for w < uint64(width) {
		w <<= 1
	}
	if agePeriod < 1 {
		agePeriod = int(w)
	}
	s := &Sketch{
		mask:      w - 1,
		agePeriod: uint64(agePeriod),
		door:      newDoorkeeper(int(w)),
	}
	for i := range s.rows {
		s.rows[i] = make([]uint8, w)
		s.seeds[i] = rng.Uint64()
	}
	return s
}

// Increment records one access for the hashed key.
func (s *Sketch) Increment(keyHash uint64) {
	s.Add(keyHash, 1)
}

// Add records weight accesses for the hashed key using a conservative
// update: only the counters currently at the row-wise minimum move, which
// curbs collision-driven overestimation. The first sighting of a key is
// absorbed by the doorkeeper and never reaches the counters.
func (s *Sketch) Add(keyHash uint64, weight int) {
	if weight < 1 {
		return
	}
	if s.door.add(keyHash) {
		var idx [depth]uint64
		minv := uint8(maxCount)
		for i := range s.rows {
			idx[i] = hash.Mix(keyHash, s.seeds[i]) & s.mask
			if v := s.rows[i][idx[i]]; v < minv {
				minv = v
			}
		}
		for i := range s.rows {
			if v := s.rows[i][idx[i]]; v == minv {
				n := int(v) + weight
				if n > maxCount {
					n = maxCount
				}
				s.rows[i][idx[i]] = uint8(n)
			}
		}
	}

	s.ops++
	if s.ops%s.agePeriod == 0 {
		s.age()
	}
}

// Estimate returns the approximate access count for the hashed key: the
// minimum counter across rows, plus one when the doorkeeper has seen the key.
func (s *Sketch) Estimate(keyHash uint64) uint32 {
	minv := uint8(maxCount)
	for i := range s.rows {
		idx := hash.Mix(keyHash, s.seeds[i]) & s.mask
		if v := s.rows[i][idx]; v < minv {
			minv = v
		}
	}
	est := uint32(minv)
	if s.door.contains(keyHash) {
		est++
	}
	return est
}

// age halves every counter and clears the doorkeeper. Runs once per
// agePeriod increments, so the amortized cost per access is O(width/period).
func (s *Sketch) age() {
	for i := range s.rows {
		row := s.rows[i]
		for j := range row {
			row[j] >>= 1
		}
	}
	s.door.reset()
}

// Reset zeroes all counters, the doorkeeper and the operation counter.
func (s *Sketch) Reset() {
	for i := range s.rows {
		clear(s.rows[i])
	}
	s.door.reset()
	s.ops = 0
}
