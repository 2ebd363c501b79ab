package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/nnet/internal/tensor"
)

// ActivationKind identifies an activation function variant.
type ActivationKind string

// Supported activation functions.
const (
	KindTanh    ActivationKind = "tanh"
	KindSigmoid ActivationKind = "sigmoid"
	KindReLU    ActivationKind = "relu"
)

// Activation is an elementwise function applied after a layer.
//
// Forward caches its input as a side effect; Backward reads that cache.
// An instance must not be shared between goroutines; clone it instead.
type Activation interface {
	// Kind returns the variant tag used by persistence.
	Kind() ActivationKind

	// Forward applies the function to every scalar and returns a value of
	// the same variant and shape.
	Forward(input tensor.Value) (tensor.Value, error)

	// Backward multiplies the upstream gradient by the derivative evaluated
	// at the cached input, flattened channel-major.
	Backward(outputGradient []float64) ([]float64, error)

	// Clone returns a fresh instance of the same kind with an empty cache.
	Clone() Activation
}

// NewActivation returns an activation of the given kind.
func NewActivation(kind ActivationKind) (Activation, error) {
	switch kind {
	case KindTanh:
		return NewTanh(), nil
	case KindSigmoid:
		return NewSigmoid(), nil
	case KindReLU:
		return NewReLU(), nil
	default:
		return nil, invariantErrorf("activation", "unsupported activation %q", kind)
	}
}

// Tanh is the hyperbolic tangent activation.
//
//	f(x)  = tanh(x)
//	f'(x) = 1 - tanh(x)^2
type Tanh struct {
	cache inputCache
}

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Kind returns KindTanh.
func (t *Tanh) Kind() ActivationKind { return KindTanh }

// Forward applies tanh elementwise.
func (t *Tanh) Forward(input tensor.Value) (tensor.Value, error) {
	return t.cache.forward("tanh.forward", input, TanhFunc)
}

// Backward returns (1 - tanh(x)^2) * g for each cached x.
func (t *Tanh) Backward(outputGradient []float64) ([]float64, error) {
	return t.cache.backward("tanh.backward", outputGradient, TanhDerivative)
}

// Clone returns a new Tanh.
func (t *Tanh) Clone() Activation { return NewTanh() }

// Sigmoid is the logistic activation.
//
//	f(x)  = 1 / (1 + e^-x)
//	f'(x) = f(x) * (1 - f(x))
type Sigmoid struct {
	cache inputCache
}

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Kind returns KindSigmoid.
func (s *Sigmoid) Kind() ActivationKind { return KindSigmoid }

// Forward applies the logistic function elementwise.
func (s *Sigmoid) Forward(input tensor.Value) (tensor.Value, error) {
	return s.cache.forward("sigmoid.forward", input, SigmoidFunc)
}

// Backward returns s(x)(1 - s(x)) * g for each cached x.
func (s *Sigmoid) Backward(outputGradient []float64) ([]float64, error) {
	return s.cache.backward("sigmoid.backward", outputGradient, SigmoidDerivative)
}

// Clone returns a new Sigmoid.
func (s *Sigmoid) Clone() Activation { return NewSigmoid() }

// ReLU is the rectified linear activation.
//
//	f(x)  = max(0, x)
//	f'(x) = 1 if x > 0, else 0 (including x == 0)
type ReLU struct {
	cache inputCache
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Kind returns KindReLU.
func (r *ReLU) Kind() ActivationKind { return KindReLU }

// Forward applies max(0, x) elementwise.
func (r *ReLU) Forward(input tensor.Value) (tensor.Value, error) {
	return r.cache.forward("relu.forward", input, ReLUFunc)
}

// Backward passes g through where the cached x was positive.
func (r *ReLU) Backward(outputGradient []float64) ([]float64, error) {
	return r.cache.backward("relu.backward", outputGradient, ReLUDerivative)
}

// Clone returns a new ReLU.
func (r *ReLU) Clone() Activation { return NewReLU() }

// TanhFunc returns tanh(x).
func TanhFunc(x float64) float64 {
	return math.Tanh(x)
}

// TanhDerivative returns 1 - tanh(x)^2.
func TanhDerivative(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

// SigmoidFunc returns 1 / (1 + e^-x).
func SigmoidFunc(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// SigmoidDerivative returns s(x) * (1 - s(x)).
func SigmoidDerivative(x float64) float64 {
	s := SigmoidFunc(x)
	return s * (1 - s)
}

// ReLUFunc returns x if x > 0 and 0 otherwise.
func ReLUFunc(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// ReLUDerivative returns 1 if x > 0 and 0 otherwise.
func ReLUDerivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// inputCache holds the pre-activation input of the last forward call.
type inputCache struct {
	input tensor.Value
}

func (c *inputCache) forward(op string, input tensor.Value, f func(float64) float64) (tensor.Value, error) {
	if input.Kind() == tensor.Uninitialized {
		return tensor.Value{}, stateErrorf(op, "input value is uninitialized")
	}
	c.input = input.Clone()
	return input.Map(f), nil
}

func (c *inputCache) backward(op string, outputGradient []float64, derivative func(float64) float64) ([]float64, error) {
	if c.input.Kind() == tensor.Uninitialized {
		return nil, stateErrorf(op, "backward called before forward (uninitialized activation)")
	}
	cached := c.input.Flatten()
	if len(outputGradient) != len(cached) {
		return nil, shapeErrorf(op, "gradient length %d, cached input length %d", len(outputGradient), len(cached))
	}
	inputGradient := make([]float64, len(cached))
	for i, x := range cached {
		inputGradient[i] = derivative(x)
	}
	floats.Mul(inputGradient, outputGradient)
	return inputGradient, nil
}
