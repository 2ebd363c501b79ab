package nn

import (
	"math/rand"
)

// Uniform fills data with values drawn independently from U(-bound, bound).
//
// A nil rng uses the package-level math/rand source.
func Uniform(data []float64, bound float64, rng *rand.Rand) {
	next := rand.Float64
	if rng != nil {
		next = rng.Float64
	}
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = (next()*2.0 - 1.0) * bound
	}
}

// Zeros returns a zero-filled slice of length n.
func Zeros(n int) []float64 {
	return make([]float64, n)
}
