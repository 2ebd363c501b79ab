package nn

import (
	"gonum.org/v1/gonum/floats"
)

// Loss is a pairwise function over (truth, prediction) vectors.
//
// Gradient is the seed fed backward through the network.
type Loss interface {
	Loss(truth, prediction []float64) (float64, error)
	Gradient(truth, prediction []float64) ([]float64, error)
}

// MSE computes Mean Squared Error.
//
//	loss        = (1/n) * Σ (t - p)²
//	gradient[i] = 2 * (p[i] - t[i]) / n
type MSE struct{}

// NewMSE creates a new MSE loss function.
func NewMSE() MSE {
	return MSE{}
}

// Loss returns the mean of squared differences.
func (MSE) Loss(truth, prediction []float64) (float64, error) {
	diff, err := difference("mse.loss", truth, prediction)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// Gradient returns the derivative of the loss with respect to prediction.
func (MSE) Gradient(truth, prediction []float64) ([]float64, error) {
	diff, err := difference("mse.gradient", truth, prediction)
	if err != nil {
		return nil, err
	}
	floats.Scale(2/float64(len(diff)), diff)
	return diff, nil
}

// difference returns prediction - truth after validating lengths.
func difference(op string, truth, prediction []float64) ([]float64, error) {
	if len(truth) != len(prediction) {
		return nil, shapeErrorf(op, "truth length %d != prediction length %d", len(truth), len(prediction))
	}
	if len(truth) == 0 {
		return nil, shapeErrorf(op, "empty vectors")
	}
	diff := make([]float64, len(prediction))
	floats.SubTo(diff, prediction, truth)
	return diff, nil
}
