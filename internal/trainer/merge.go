package trainer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/nnet/internal/nn"
)

// ErrNoWorkers is returned when a merge receives no networks.
var ErrNoWorkers = errors.New("trainer: no worker networks to merge")

// Merge combines the networks trained by the workers of one epoch into a new
// network with the same architecture. Worker networks must not be modified.
type Merge func(workers []*nn.Network) (*nn.Network, error)

// MergePairwise folds the workers in index order:
//
//	merged = w0
//	merged = (merged + wk) / 2   for k = 1..P-1
//
// Worker k ends up with weight 2^-(P-k) (worker 0 shares the weight of
// worker 1), so later workers dominate.
func MergePairwise(workers []*nn.Network) (*nn.Network, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	merged := workers[0].Clone()
	dst := merged.Params()
	for k, w := range workers[1:] {
		src, err := compatibleParams(dst, w, k+1)
		if err != nil {
			return nil, err
		}
		for i := range dst {
			floats.Add(dst[i].Data, src[i].Data)
			floats.Scale(0.5, dst[i].Data)
		}
	}
	return merged, nil
}

// MergeMean averages the workers with equal weights.
func MergeMean(workers []*nn.Network) (*nn.Network, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}

	merged := workers[0].Clone()
	dst := merged.Params()
	for k, w := range workers[1:] {
		src, err := compatibleParams(dst, w, k+1)
		if err != nil {
			return nil, err
		}
		for i := range dst {
			floats.Add(dst[i].Data, src[i].Data)
		}
	}
	for i := range dst {
		floats.Scale(1/float64(len(workers)), dst[i].Data)
	}
	return merged, nil
}

func compatibleParams(dst []nn.Param, w *nn.Network, index int) ([]nn.Param, error) {
	src := w.Params()
	if len(src) != len(dst) {
		return nil, fmt.Errorf("trainer: worker %d has %d parameters, expected %d: %w", index, len(src), len(dst), nn.ErrShape)
	}
	for i := range src {
		if src[i].Name != dst[i].Name || len(src[i].Data) != len(dst[i].Data) {
			return nil, fmt.Errorf("trainer: worker %d parameter %s%v does not match %s%v: %w",
				index, src[i].Name, src[i].Shape, dst[i].Name, dst[i].Shape, nn.ErrShape)
		}
	}
	return src, nil
}
