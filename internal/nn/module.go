// Package nn implements the layers, activations, losses and the network
// pipeline of the nnet training engine.
//
// This package provides:
//   - Layer interface: Dense and Convolution layers
//   - Activation interface: Tanh, Sigmoid, ReLU
//   - Loss interface: MSE
//   - Network: ordered (Layer, Activation) stages with per-sample SGD
//   - Persistence: Marshal/Unmarshal and checkpoints
//
// Forward calls cache their input for the matching backward call, so a
// layer, activation or network is single-goroutine. Parallel training works
// on deep clones.
package nn

import (
	"github.com/born-ml/nnet/internal/tensor"
)

// LayerKind identifies a layer variant.
type LayerKind string

// Supported layer variants.
const (
	KindDense       LayerKind = "dense"
	KindConvolution LayerKind = "convolution"
)

// Layer is the interface shared by the Dense and Convolution layers.
//
// Every layer must implement:
//   - Forward: convert the incoming value to the variant it expects, cache
//     it, and compute the output
//   - Backward: compute the gradient for the preceding stage, then apply an
//     in-place gradient descent step
//   - Params: expose the trainable parameters as views
type Layer interface {
	// Kind returns the variant tag used by persistence.
	Kind() LayerKind

	// Forward computes the layer output and caches the input.
	Forward(input tensor.Value) (tensor.Value, error)

	// Backward consumes the gradient with respect to the layer output,
	// updates the parameters with learningRate and returns the gradient
	// with respect to the layer input (flattened channel-major).
	Backward(outputGradient []float64, learningRate float64) ([]float64, error)

	// Params returns views over the trainable parameters. Writing through
	// a view changes the layer.
	Params() []Param

	// InputSize is the number of scalars the layer consumes.
	InputSize() int

	// OutputSize is the number of scalars the layer produces.
	OutputSize() int

	// Spec describes the layer geometry for persistence.
	Spec() LayerSpec

	// Clone returns a deep copy of the parameters with an empty cache.
	Clone() Layer
}
