package sonnet

import (
	"math/rand/v2"
	"sort"
)

// Rand is the random source consumed by sampling. *rand.Rand from math/rand/v2
// satisfies it. A Rand is not safe for concurrent use; give each concurrent
// generation call its own.
type Rand interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// NewRand returns a PCG-backed random source. The same seed always yields the
// same sequence, which makes generation reproducible.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// weightedIndex picks an index proportionally to weights using a single
// uniform draw u in [0, 1): it builds the cumulative distribution and binary
// searches it. Zero weights are never selected. The caller guarantees that the
// weights have a positive sum.
func weightedIndex(u float64, weights []float64) int {
	cumulative := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	target := u * total
	i := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > target })
	if i == len(cumulative) {
		// u*total rounded up to total; take the last index with mass.
		i = len(cumulative) - 1
		for i > 0 && weights[i] == 0 {
			i--
		}
	}
	return i
}

// uniformIndex picks an index in [0, n) using a single uniform draw.
func uniformIndex(u float64, n int) int {
	i := int(u * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
