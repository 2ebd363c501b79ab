package dataset

import (
	"math/rand"
)

// Synthetic image geometry, matching MNIST.
const (
	SyntheticRows = 28
	SyntheticCols = 28
)

// Synthetic creates n 28x28 digit-like samples with labels i%10.
//
// Digit d is a bright 8-row band starting at row 2d, columns 5..22, with
// uniform pixel noise drawn from rng (nil uses the package-level source).
// This is not realistic MNIST data; it exercises the training pipeline with
// a learnable, deterministic task.
func Synthetic(n int, rng *rand.Rand) *Set {
	next := rand.Float64
	if rng != nil {
		next = rng.Float64
	}

	set := &Set{Images: make([][]float64, n), Labels: make([]int, n), Rows: SyntheticRows, Cols: SyntheticCols}
	for i := 0; i < n; i++ {
		digit := i % NumClasses
		img := make([]float64, SyntheticRows*SyntheticCols)
		for p := range img {
			img[p] = 0.05 * next() //nolint:gosec // Noise only
		}

		start := digit * 2
		for row := start; row < start+8 && row < SyntheticRows; row++ {
			for col := 5; col < 23; col++ {
				img[row*SyntheticCols+col] = 0.7 + 0.2*next() //nolint:gosec // Noise only
			}
		}

		set.Images[i] = img
		set.Labels[i] = digit
	}
	return set
}
