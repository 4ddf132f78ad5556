package arclfu

import "sync"

// Store is a minimal exclusive-lock binding of an Engine to a value map.
// It owns the values, enforces capacity, and drives the hook protocol in
// the required order. All methods are safe for concurrent use; every access
// serializes on one mutex, which is what the unsynchronized engine requires.
type Store[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	values   map[K]V
	engine   *Engine[K]
}

// NewStore creates a store with the given capacity. Engine options are
// passed through.
func NewStore[K comparable, V any](capacity int, opts ...Option[K]) (*Store[K, V], error) {
	engine, err := NewEngine[K](capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &Store[K, V]{
		capacity: capacity,
		values:   make(map[K]V, capacity),
		engine:   engine,
	}, nil
}

// Get returns the value for key if resident.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if ok {
		s.engine.OnHit(key)
	}
	return value, ok
}

// Set inserts or updates key. An update counts as a hit; an insert at
// capacity evicts the engine's victim first.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; ok {
		s.values[key] = value
		s.engine.OnHit(key)
		return
	}
	if len(s.values) >= s.capacity {
		s.engine.EnsureCapacity(s.capacity)
		victim, err := s.engine.SelectVictim(key)
		if err != nil {
			// Engine lost track of the residents; rebuild its view
			// and retry once.
			s.resyncLocked()
			if victim, err = s.engine.SelectVictim(key); err != nil {
				return
			}
		}
		delete(s.values, victim)
		s.engine.OnEvicted(victim)
	}
	s.values[key] = value
	s.engine.OnInserted(key)
}

// Delete removes key from the store and the policy state.
// Returns true if the key was resident.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	s.engine.Forget(key)
	return true
}

// Contains reports whether key is resident, without touching policy state.
func (s *Store[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// Len returns the number of resident entries.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Capacity returns the store capacity.
func (s *Store[K, V]) Capacity() int {
	return s.capacity
}

// Clear removes all entries and resets the policy state.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	s.engine.Reset()
}

// Metrics returns the engine metrics.
func (s *Store[K, V]) Metrics() MetricsSnapshot {
	return s.engine.Metrics()
}

// resyncLocked hands the authoritative key set to the engine.
func (s *Store[K, V]) resyncLocked() {
	keys := make([]K, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	s.engine.Resync(keys)
}
