package sketch

// doorkeeper is a small bloom filter in front of the counters. A key must be
// seen once before it may increment the sketch, which keeps streams of
// one-time keys from polluting the frequency state.
type doorkeeper struct {
	bits    []uint64
	numBits uint64
}

// doorHashes is the number of probe positions per key.
const doorHashes = 7

// newDoorkeeper sizes the filter for roughly n keys at ~1% false positives.
func newDoorkeeper(n int) *doorkeeper {
	numBits := uint64(n) * 10
	if numBits < 64 {
		numBits = 64
	}
	numBits = ((numBits + 63) / 64) * 64
	return &doorkeeper{
		bits:    make([]uint64, numBits/64),
		numBits: numBits,
	}
}

// add marks the key as seen and reports whether it was already present
// (subject to bloom false positives).
func (d *doorkeeper) add(keyHash uint64) bool {
	present := true
	for i := 0; i < doorHashes; i++ {
		idx := d.index(keyHash, i)
		word, mask := idx/64, uint64(1)<<(idx%64)
		if d.bits[word]&mask == 0 {
			present = false
			d.bits[word] |= mask
		}
	}
	return present
}

// contains reports whether the key may have been seen.
func (d *doorkeeper) contains(keyHash uint64) bool {
	for i := 0; i < doorHashes; i++ {
		idx := d.index(keyHash, i)
		if d.bits[idx/64]&(uint64(1)<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// index derives probe i via double hashing.
func (d *doorkeeper) index(keyHash uint64, i int) uint64 {
	h2 := (keyHash >> 32) | (keyHash << 32)
	return (keyHash + uint64(i)*h2) % d.numBits
}

// reset clears the filter.
func (d *doorkeeper) reset() {
	clear(d.bits)
}
