// Package arclfu implements an adaptive, scan-resistant cache-replacement
// engine that combines ARC-style dual pools with a TinyLFU frequency sketch.
//
// The engine is a pure policy: it owns no values, does no I/O, and plugs
// into any key-value store through four hooks. On a hit the store calls
// [Engine.OnHit]; on a miss at capacity it calls [Engine.SelectVictim],
// physically evicts the victim, calls [Engine.OnEvicted], inserts the new
// key, and calls [Engine.OnInserted] - in exactly that order.
//
// Internally the resident key set is split into a recency-biased pool and a
// frequency-biased pool, with an adaptive target p for the recency pool's
// size. Two bounded ghost lists remember recently evicted keys per pool;
// a miss that lands in a ghost proves the eviction was premature and moves
// p the other way (the ARC rule). A Count-Min sketch with periodic halving
// estimates per-key frequency and steers victim sampling, and a cold-streak
// detector opens a guard window during sequential scans so one-time keys
// reclaim their own slots instead of flushing the working set.
//
// The engine is deliberately unsynchronized. Wrap it in [Store] for a
// single-lock binding, or in [ShardedStore] to scale across cores with one
// independent engine per shard.
package arclfu
