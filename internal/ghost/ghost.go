// Package ghost keeps bounded, metadata-only history of recently evicted
// keys, split by the segment each key was evicted from. A reappearing ghost
// is the "should have kept this" signal that drives target adaptation.
package ghost

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/OrlovEvgeny/go-arclfu/internal/segment"
)

// History tracks evicted keys per origin segment. Values are the logical
// eviction tick; no cache values are retained.
type History[K comparable] struct {
	sides [2]*simplelru.LRU[K, uint64]
	bound int

	// lastHit is the origin side of the most recently consumed ghost.
	// Trimming prefers the opposite side, so the side that is currently
	// producing useful signals keeps its history longer.
	lastHit segment.Segment
}

// New creates a history holding at most bound keys across both sides.
func New[K comparable](bound int) *History[K] {
	if bound < 1 {
		bound = 1
	}
	h := &History[K]{bound: bound, lastHit: segment.Recency}
	for i := range h.sides {
		// A single side can never legitimately exceed the combined bound.
		lru, err := simplelru.NewLRU[K, uint64](bound, nil)
		if err != nil {
			panic(err) // bound >= 1, cannot happen
		}
		h.sides[i] = lru
	}
	return h
}

// Record inserts or refreshes a ghost entry for a key evicted from origin,
// then trims back to the combined bound.
func (h *History[K]) Record(key K, origin segment.Segment, now uint64) {
	h.sides[other(origin)].Remove(key)
	h.sides[origin].Add(key, now)
	h.trim()
}

// Contains reports the origin segment of a ghost without consuming it.
func (h *History[K]) Contains(key K) (segment.Segment, bool) {
	for seg := segment.Segment(0); seg < 2; seg++ {
		if h.sides[seg].Contains(key) {
			return seg, true
		}
	}
	return 0, false
}

// Consume removes the ghost entry for key and returns its origin. The side
// that produced the hit becomes the protected side for future trimming.
func (h *History[K]) Consume(key K) (segment.Segment, bool) {
	for seg := segment.Segment(0); seg < 2; seg++ {
		if h.sides[seg].Contains(key) {
			h.sides[seg].Remove(key)
			h.lastHit = seg
			return seg, true
		}
	}
	return 0, false
}

// Remove drops a key from both sides. Called whenever a key becomes
// resident, keeping ghosts disjoint from the resident set.
func (h *History[K]) Remove(key K) bool {
	removed := h.sides[segment.Recency].Remove(key)
	return h.sides[segment.Frequency].Remove(key) || removed
}

// Len returns the combined ghost count.
func (h *History[K]) Len() int {
	return h.sides[segment.Recency].Len() + h.sides[segment.Frequency].Len()
}

// SideLen returns the ghost count for one origin segment.
func (h *History[K]) SideLen(seg segment.Segment) int {
	return h.sides[seg].Len()
}

// Purge clears all history.
func (h *History[K]) Purge() {
	h.sides[segment.Recency].Purge()
	h.sides[segment.Frequency].Purge()
	h.lastHit = segment.Recency
}

// trim evicts oldest ghosts until the combined bound holds, preferring the
// side opposite the most recent ghost hit.
func (h *History[K]) trim() {
	for h.Len() > h.bound {
		victim := other(h.lastHit)
		if h.sides[victim].Len() == 0 {
			victim = h.lastHit
		}
		h.sides[victim].RemoveOldest()
	}
}

func other(seg segment.Segment) segment.Segment {
	if seg == segment.Recency {
		return segment.Frequency
	}
	return segment.Recency
}
