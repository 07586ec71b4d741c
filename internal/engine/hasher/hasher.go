// Package hasher maps normalised words to fixed-width hash keys and hash
// keys to index partitions. Both functions are pure: the same word always
// yields the same key, and the same key always lands in the same partition
// for a given partition count. Two distinct words may share a key; such
// collisions are an accepted precision trade-off, not an error.
package hasher

import "github.com/cespare/xxhash/v2"

// Hasher derives hash keys and partition IDs. The partition count is fixed
// when the index is created and must never change for its lifetime.
type Hasher struct {
	partitions int
}

// New creates a Hasher for an index with the given partition count.
func New(partitions int) *Hasher {
	if partitions < 1 {
		panic("hasher: partition count must be at least 1")
	}
	return &Hasher{partitions: partitions}
}

// Sum returns the 64-bit hash key of a word.
func (h *Hasher) Sum(word string) uint64 {
	return xxhash.Sum64String(word)
}

// Partition returns the partition ID owning the given hash key, in
// [0, Partitions).
func (h *Hasher) Partition(key uint64) int {
	return int(key % uint64(h.partitions))
}

// Partitions returns the partition count.
func (h *Hasher) Partitions() int {
	return h.partitions
}

// SumAll hashes every word in order, duplicates preserved.
func (h *Hasher) SumAll(words []string) []uint64 {
	keys := make([]uint64, len(words))
	for i, w := range words {
		keys[i] = xxhash.Sum64String(w)
	}
	return keys
}
