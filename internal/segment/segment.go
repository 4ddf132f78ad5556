// Package segment partitions the resident key set into a recency-biased pool
// and a frequency-biased pool, each kept in strict LRU order.
//
// Entries live in a preallocated arena addressed by integer slots with
// intrusive prev/next links, plus an index map from key to slot. This gives
// O(1) insert, touch, promote and remove without per-entry allocations.
package segment

// Segment identifies which resident pool a key belongs to.
type Segment uint8

const (
	// Recency holds keys admitted on their first (recent) appearance.
	Recency Segment = iota
	// Frequency holds keys with proven reuse.
	Frequency

	numSegments = 2
)

// String returns the segment name for logs and tests.
func (s Segment) String() string {
	switch s {
	case Recency:
		return "recency"
	case Frequency:
		return "frequency"
	default:
		return "unknown"
	}
}

// none marks an empty slot link.
const none = -1

// entry is one arena slot. prev points toward the MRU end, next toward LRU.
type entry[K comparable] struct {
	key        K
	prev, next int32
	lastAccess uint64
	seg        Segment
}

// Manager owns the two resident pools. It tracks keys only; values stay in
// the caller's store.
type Manager[K comparable] struct {
	arena []entry[K]
	free  []int32
	index map[K]int32

	// head is the MRU end, tail the LRU end, per segment.
	head [numSegments]int32
	tail [numSegments]int32
	size [numSegments]int
}

// NewManager creates a manager with an arena sized for capacity residents.
// The arena grows if the caller's store ever runs ahead of it.
func NewManager[K comparable](capacity int) *Manager[K] {
	if capacity < 1 {
		capacity = 1
	}
	m := &Manager[K]{
		arena: make([]entry[K], 0, capacity),
		index: make(map[K]int32, capacity),
	}
	m.head = [numSegments]int32{none, none}
	m.tail = [numSegments]int32{none, none}
	return m
}

// Contains reports the segment holding key, if any.
func (m *Manager[K]) Contains(key K) (Segment, bool) {
	slot, ok := m.index[key]
	if !ok {
		return 0, false
	}
	return m.arena[slot].seg, true
}

// Len returns the number of keys in the given segment.
func (m *Manager[K]) Len(seg Segment) int {
	return m.size[seg]
}

// Total returns the number of resident keys across both segments.
func (m *Manager[K]) Total() int {
	return m.size[Recency] + m.size[Frequency]
}

// Insert adds an untracked key to the given segment. With front set the key
// enters at the MRU end; otherwise at the LRU end, which is how scan-guarded
// admissions are kept cheap to reclaim. Inserting an already tracked key
// refreshes it in place instead.
func (m *Manager[K]) Insert(key K, seg Segment, now uint64, front bool) {
	if slot, ok := m.index[key]; ok {
		m.unlink(slot)
		m.size[m.arena[slot].seg]--
		m.size[seg]++
		m.arena[slot].seg = seg
		m.arena[slot].lastAccess = now
		if front {
			m.pushFront(slot, seg)
		} else {
			m.pushBack(slot, seg)
		}
		return
	}
	slot := m.alloc(key, seg, now)
	if front {
		m.pushFront(slot, seg)
	} else {
		m.pushBack(slot, seg)
	}
	m.index[key] = slot
	m.size[seg]++
}

// Touch refreshes key to the MRU position of its current segment.
// Returns false if the key is untracked; the caller decides whether to adopt.
func (m *Manager[K]) Touch(key K, now uint64) bool {
	slot, ok := m.index[key]
	if !ok {
		return false
	}
	seg := m.arena[slot].seg
	m.unlink(slot)
	m.arena[slot].lastAccess = now
	m.pushFront(slot, seg)
	return true
}

// Promote moves a key from Recency to the Frequency MRU. A key already in
// Frequency is refreshed in place. Returns false for untracked keys.
func (m *Manager[K]) Promote(key K, now uint64) bool {
	slot, ok := m.index[key]
	if !ok {
		return false
	}
	e := &m.arena[slot]
	if e.seg == Frequency {
		return m.Touch(key, now)
	}
	m.unlink(slot)
	m.size[Recency]--
	e.seg = Frequency
	e.lastAccess = now
	m.pushFront(slot, Frequency)
	m.size[Frequency]++
	return true
}

// Remove drops a key and reports the segment it was in.
func (m *Manager[K]) Remove(key K) (Segment, bool) {
	slot, ok := m.index[key]
	if !ok {
		return 0, false
	}
	seg := m.arena[slot].seg
	m.unlink(slot)
	m.size[seg]--
	delete(m.index, key)
	var zero K
	m.arena[slot].key = zero
	m.free = append(m.free, slot)
	return seg, true
}

// Oldest appends up to k least-recently-used keys of seg to buf, LRU first,
// without mutating list order.
func (m *Manager[K]) Oldest(seg Segment, k int, buf []K) []K {
	for slot := m.tail[seg]; slot != none && k > 0; k-- {
		buf = append(buf, m.arena[slot].key)
		slot = m.arena[slot].prev
	}
	return buf
}

// LastAccess returns the logical tick of the key's last access.
func (m *Manager[K]) LastAccess(key K) (uint64, bool) {
	slot, ok := m.index[key]
	if !ok {
		return 0, false
	}
	return m.arena[slot].lastAccess, true
}

// GlobalOldest returns the resident key with the smallest last-access tick.
// This is an O(n) sweep and exists only as an eviction fallback; the normal
// victim path samples the segment tails instead.
func (m *Manager[K]) GlobalOldest() (K, bool) {
	var (
		best  K
		tick  uint64
		found bool
	)
	for key, slot := range m.index {
		la := m.arena[slot].lastAccess
		if !found || la < tick {
			best, tick, found = key, la, true
		}
	}
	return best, found
}

// Any returns an arbitrary resident key, preferring a segment tail.
func (m *Manager[K]) Any() (K, bool) {
	for seg := Segment(0); seg < numSegments; seg++ {
		if slot := m.tail[seg]; slot != none {
			return m.arena[slot].key, true
		}
	}
	var zero K
	return zero, false
}

// Keys appends every resident key to buf in unspecified order.
func (m *Manager[K]) Keys(buf []K) []K {
	for key := range m.index {
		buf = append(buf, key)
	}
	return buf
}

// Clear drops all entries but keeps the arena allocation.
func (m *Manager[K]) Clear() {
	m.arena = m.arena[:0]
	m.free = m.free[:0]
	clear(m.index)
	m.head = [numSegments]int32{none, none}
	m.tail = [numSegments]int32{none, none}
	m.size = [numSegments]int{}
}

// alloc takes a slot from the free list or extends the arena.
func (m *Manager[K]) alloc(key K, seg Segment, now uint64) int32 {
	var slot int32
	if n := len(m.free); n > 0 {
		slot = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.arena = append(m.arena, entry[K]{})
		slot = int32(len(m.arena) - 1)
	}
	e := &m.arena[slot]
	e.key = key
	e.seg = seg
	e.lastAccess = now
	e.prev, e.next = none, none
	return slot
}

// unlink detaches a slot from its segment list without freeing it.
func (m *Manager[K]) unlink(slot int32) {
	e := &m.arena[slot]
	seg := e.seg
	if e.prev != none {
		m.arena[e.prev].next = e.next
	} else {
		m.head[seg] = e.next
	}
	if e.next != none {
		m.arena[e.next].prev = e.prev
	} else {
		m.tail[seg] = e.prev
	}
	e.prev, e.next = none, none
}

// pushFront links a detached slot at the MRU end of seg.
func (m *Manager[K]) pushFront(slot int32, seg Segment) {
	e := &m.arena[slot]
	e.prev = none
	e.next = m.head[seg]
	if m.head[seg] != none {
		m.arena[m.head[seg]].prev = slot
	}
	m.head[seg] = slot
	if m.tail[seg] == none {
		m.tail[seg] = slot
	}
}

// pushBack links a detached slot at the LRU end of seg.
func (m *Manager[K]) pushBack(slot int32, seg Segment) {
	e := &m.arena[slot]
	e.next = none
	e.prev = m.tail[seg]
	if m.tail[seg] != none {
		m.arena[m.tail[seg]].next = slot
	}
	m.tail[seg] = slot
	if m.head[seg] == none {
		m.head[seg] = slot
	}
}
