package arclfu

import (
	"github.com/OrlovEvgeny/go-arclfu/internal/hash"
)

// DefaultShardCount is the default number of shards for a ShardedStore.
const DefaultShardCount = 16

// ShardedStore partitions the key space across independent Store shards,
// each with its own engine and lock. This is the intended scaling strategy
// for multi-core throughput: target adaptation and ghost bookkeeping are
// inherently sequential per engine, so sharding beats fine-grained locking.
type ShardedStore[K comparable, V any] struct {
	shards    []*Store[K, V]
	shardMask uint64
	hasher    func(K) uint64
}

// NewShardedStore creates a sharded store with the given total capacity
// split evenly across shardCount shards (rounded up to a power of two).
// Engine options apply to every shard.
func NewShardedStore[K comparable, V any](capacity, shardCount int, opts ...Option[K]) (*ShardedStore[K, V], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if shardCount < 1 {
		shardCount = DefaultShardCount
	}
	shardCount = nextPowerOf2(shardCount)
	perShard := max(capacity/shardCount, 1)

	s := &ShardedStore[K, V]{
		shards:    make([]*Store[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
		hasher:    hash.Key[K],
	}
	for i := range s.shards {
		shard, err := NewStore[K, V](perShard, opts...)
		if err != nil {
			return nil, err
		}
		s.shards[i] = shard
	}
	return s, nil
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n int) int {
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// shard returns the shard responsible for key.
func (s *ShardedStore[K, V]) shard(key K) *Store[K, V] {
	return s.shards[s.hasher(key)&s.shardMask]
}

// Get returns the value for key if resident.
func (s *ShardedStore[K, V]) Get(key K) (V, bool) {
	return s.shard(key).Get(key)
}

// Set inserts or updates key in its shard.
func (s *ShardedStore[K, V]) Set(key K, value V) {
	s.shard(key).Set(key, value)
}

// Delete removes key from its shard.
func (s *ShardedStore[K, V]) Delete(key K) bool {
	return s.shard(key).Delete(key)
}

// Len returns the total number of resident entries across shards.
func (s *ShardedStore[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Clear empties every shard.
func (s *ShardedStore[K, V]) Clear() {
	for _, shard := range s.shards {
		shard.Clear()
	}
}

// Metrics aggregates the engine metrics of all shards. The hit ratio is
// recomputed from the summed counters.
func (s *ShardedStore[K, V]) Metrics() MetricsSnapshot {
	var agg MetricsSnapshot
	for _, shard := range s.shards {
		snap := shard.Metrics()
		agg.Hits += snap.Hits
		agg.Misses += snap.Misses
		agg.Evictions += snap.Evictions
		agg.RecencyGhostHits += snap.RecencyGhostHits
		agg.FrequencyGhostHits += snap.FrequencyGhostHits
		agg.ScanGuards += snap.ScanGuards
		agg.HotBypasses += snap.HotBypasses
		agg.Resyncs += snap.Resyncs
		agg.Resets += snap.Resets
	}
	if total := agg.Hits + agg.Misses; total > 0 {
		agg.HitRatio = float64(agg.Hits) / float64(total)
	}
	return agg
}
