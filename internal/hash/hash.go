// Package hash provides key hashing for the policy engine.
//
// The engine never stores raw keys inside its frequency sketch; every key is
// reduced to a uint64 first. String keys go through xxhash, integer keys
// through splitmix64, and any other comparable type falls back to the
// runtime's maphash.
package hash

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// seed is fixed per process so that repeated hashing of the same key is
// stable for the lifetime of an engine instance.
var seed = maphash.MakeSeed()

// Key computes the default hash for a key of any comparable type.
func Key[K comparable](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		return xxhash.Sum64String(k)
	case int:
		return Uint64(uint64(k))
	case int32:
		return Uint64(uint64(k))
	case int64:
		return Uint64(uint64(k))
	case uint:
		return Uint64(uint64(k))
	case uint32:
		return Uint64(uint64(k))
	case uint64:
		return Uint64(k)
	default:
		return maphash.Comparable(seed, key)
	}
}

// Uint64 mixes an integer key with the splitmix64 finalizer for good
// bit distribution.
func Uint64(k uint64) uint64 {
	x := k
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Mix combines a hash with a per-row seed. Used by the frequency sketch to
// derive independent row indexes from a single key hash.
func Mix(h, rowSeed uint64) uint64 {
	x := h ^ rowSeed
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
