// Package shuffle produces random permutations without touching the caller's slice.
package shuffle

import (
	"math/rand"
	"time"
)

// NewRand returns a source seeded from the wall clock.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Shuffle returns a uniformly random permutation of a copy of in (Fisher-Yates).
func Shuffle[T any](rnd *rand.Rand, in []T) []T {
	shuffled := make([]T, len(in))
	copy(shuffled, in)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
