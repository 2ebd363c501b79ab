package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/nnet/internal/tensor"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = W·x + b
// where:
//   - x is the input vector with length input_size
//   - W is the weight matrix with shape [output_size, input_size]
//   - b is the bias vector with length output_size
//
// Weights and biases are drawn independently from U(-1, 1).
//
// Example:
//
//	layer, err := nn.NewDense(784, 50, rand.New(rand.NewSource(1)))
//	out, err := layer.Forward(tensor.NewDense(pixels)) // len 50
type Dense struct {
	inputSize  int
	outputSize int
	weights    *mat.Dense    // [output_size, input_size]
	biases     *mat.VecDense // [output_size]
	input      *mat.VecDense // last forward input, nil before the first call
}

// NewDense creates a Dense layer with uniform [-1, 1] initialization.
//
// A nil rng uses the package-level math/rand source.
func NewDense(inputSize, outputSize int, rng *rand.Rand) (*Dense, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, shapeErrorf("dense.new", "invalid size in=%d, out=%d", inputSize, outputSize)
	}

	weights := make([]float64, outputSize*inputSize)
	Uniform(weights, 1, rng)
	biases := make([]float64, outputSize)
	Uniform(biases, 1, rng)

	return &Dense{
		inputSize:  inputSize,
		outputSize: outputSize,
		weights:    mat.NewDense(outputSize, inputSize, weights),
		biases:     mat.NewVecDense(outputSize, biases),
	}, nil
}

// Kind returns KindDense.
func (d *Dense) Kind() LayerKind { return KindDense }

// Forward computes y = W·x + b.
//
// Multi-channel input is flattened channel-major first. The input is
// copied into the layer cache for the matching Backward call.
func (d *Dense) Forward(input tensor.Value) (tensor.Value, error) {
	if input.Kind() == tensor.Uninitialized {
		return tensor.Value{}, stateErrorf("dense.forward", "input value is uninitialized")
	}
	x := input.Flatten()
	if len(x) != d.inputSize {
		return tensor.Value{}, shapeErrorf("dense.forward", "expected input with %d features, got %d", d.inputSize, len(x))
	}

	cached := make([]float64, len(x))
	copy(cached, x)
	d.input = mat.NewVecDense(len(cached), cached)

	y := mat.NewVecDense(d.outputSize, nil)
	y.MulVec(d.weights, d.input)
	y.AddVec(y, d.biases)
	return tensor.NewDense(y.RawVector().Data), nil
}

// Backward applies one gradient descent step and returns dL/dx.
//
//	input_gradient = Wᵀ·g          (pre-update weights)
//	W             -= lr * g ⊗ x
//	b             -= lr * g
func (d *Dense) Backward(outputGradient []float64, learningRate float64) ([]float64, error) {
	if d.input == nil {
		return nil, stateErrorf("dense.backward", "backward called before forward")
	}
	if len(outputGradient) != d.outputSize {
		return nil, shapeErrorf("dense.backward", "expected gradient with %d elements, got %d", d.outputSize, len(outputGradient))
	}

	g := mat.NewVecDense(d.outputSize, outputGradient)

	inputGradient := mat.NewVecDense(d.inputSize, nil)
	inputGradient.MulVec(d.weights.T(), g)

	d.weights.RankOne(d.weights, -learningRate, g, d.input)
	d.biases.AddScaledVec(d.biases, -learningRate, g)

	return inputGradient.RawVector().Data, nil
}

// Params returns [weight, bias].
func (d *Dense) Params() []Param {
	return []Param{
		{Name: "weight", Shape: tensor.Shape{d.outputSize, d.inputSize}, Data: d.weights.RawMatrix().Data},
		{Name: "bias", Shape: tensor.Shape{d.outputSize}, Data: d.biases.RawVector().Data},
	}
}

// InputSize returns the number of input features.
func (d *Dense) InputSize() int {
	return d.inputSize
}

// OutputSize returns the number of output features.
func (d *Dense) OutputSize() int {
	return d.outputSize
}

// Weights returns the weight matrix. Mutating it changes the layer.
func (d *Dense) Weights() *mat.Dense {
	return d.weights
}

// Biases returns the bias vector. Mutating it changes the layer.
func (d *Dense) Biases() *mat.VecDense {
	return d.biases
}

// Spec describes the layer geometry.
func (d *Dense) Spec() LayerSpec {
	return LayerSpec{Kind: KindDense, InputSize: d.inputSize, OutputSize: d.outputSize}
}

// Clone returns a deep copy without the cached input.
func (d *Dense) Clone() Layer {
	return &Dense{
		inputSize:  d.inputSize,
		outputSize: d.outputSize,
		weights:    mat.DenseCopyOf(d.weights),
		biases:     mat.VecDenseCopyOf(d.biases),
	}
}

// String returns a string representation of the layer.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(in_features=%d, out_features=%d)", d.inputSize, d.outputSize)
}
