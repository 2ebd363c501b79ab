package trainer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnet/internal/nn"
)

// constantNetwork returns a 2->1 Dense network whose parameters all equal v.
func constantNetwork(t *testing.T, v float64) *nn.Network {
	t.Helper()
	layer, err := nn.NewDense(2, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	net, err := nn.New([]nn.Layer{layer}, []nn.Activation{nn.NewTanh()})
	require.NoError(t, err)
	for _, p := range net.Params() {
		for i := range p.Data {
			p.Data[i] = v
		}
	}
	return net
}

func firstValues(net *nn.Network) []float64 {
	var out []float64
	for _, p := range net.Params() {
		out = append(out, p.Data[0])
	}
	return out
}

func TestMergePairwise(t *testing.T) {
	workers := []*nn.Network{constantNetwork(t, 1), constantNetwork(t, 3), constantNetwork(t, 9)}

	merged, err := MergePairwise(workers)
	require.NoError(t, err)

	// ((1 + 3) / 2 + 9) / 2
	for _, p := range merged.Params() {
		for _, v := range p.Data {
			assert.InDelta(t, 5.5, v, 1e-12, p.Name)
		}
	}

	// Inputs are untouched.
	assert.Equal(t, []float64{1, 1}, firstValues(workers[0]))
	assert.Equal(t, []float64{9, 9}, firstValues(workers[2]))
}

func TestMergePairwiseOrderMatters(t *testing.T) {
	a, err := MergePairwise([]*nn.Network{constantNetwork(t, 0), constantNetwork(t, 0), constantNetwork(t, 8)})
	require.NoError(t, err)
	b, err := MergePairwise([]*nn.Network{constantNetwork(t, 8), constantNetwork(t, 0), constantNetwork(t, 0)})
	require.NoError(t, err)

	assert.InDelta(t, 4.0, firstValues(a)[0], 1e-12)
	assert.InDelta(t, 2.0, firstValues(b)[0], 1e-12)
}

func TestMergeMean(t *testing.T) {
	merged, err := MergeMean([]*nn.Network{constantNetwork(t, 1), constantNetwork(t, 3), constantNetwork(t, 9)})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{13.0 / 3, 13.0 / 3}, firstValues(merged), 1e-12)
}

func TestMergeSingleWorker(t *testing.T) {
	w := constantNetwork(t, 2.5)
	for _, merge := range []Merge{MergePairwise, MergeMean} {
		merged, err := merge([]*nn.Network{w})
		require.NoError(t, err)
		assert.Equal(t, firstValues(w), firstValues(merged))
		assert.NotSame(t, w, merged)
	}
}

func TestMergeErrors(t *testing.T) {
	_, err := MergePairwise(nil)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = MergeMean(nil)
	assert.ErrorIs(t, err, ErrNoWorkers)

	layer, err := nn.NewDense(2, 3, nil)
	require.NoError(t, err)
	other, err := nn.New([]nn.Layer{layer}, []nn.Activation{nn.NewTanh()})
	require.NoError(t, err)

	_, err = MergePairwise([]*nn.Network{constantNetwork(t, 1), other})
	assert.ErrorIs(t, err, nn.ErrShape)
}
