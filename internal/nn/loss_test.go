package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func TestMSE(t *testing.T) {
	mse := NewMSE()

	l, err := mse.Loss([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l)

	l, err = mse.Loss([]float64{0, 0}, []float64{1, 3})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, l, 1e-12) // (1 + 9) / 2

	g, err := mse.Gradient([]float64{0, 0}, []float64{1, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3}, g, 1e-12) // 2(p-t)/n
}

func TestMSEPositiveUnlessEqual(t *testing.T) {
	mse := NewMSE()
	l, err := mse.Loss([]float64{0.5, 0.5}, []float64{0.5, 0.5000001})
	require.NoError(t, err)
	assert.Positive(t, l)
}

func TestMSEGradientMatchesFiniteDifferences(t *testing.T) {
	mse := NewMSE()
	truth := []float64{0.2, -0.7, 1.5, 0}
	prediction := []float64{0.1, 0.3, 1.2, -0.4}

	want := fd.Gradient(nil, func(p []float64) float64 {
		l, err := mse.Loss(truth, p)
		require.NoError(t, err)
		return l
	}, prediction, &fd.Settings{Formula: fd.Central})

	got, err := mse.Gradient(truth, prediction)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-6)
}

func TestMSEErrors(t *testing.T) {
	mse := NewMSE()

	_, err := mse.Loss([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShape)
	_, err = mse.Gradient([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrShape)
	_, err = mse.Loss(nil, nil)
	assert.ErrorIs(t, err, ErrShape)
}
