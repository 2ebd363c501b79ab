package nn

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/born-ml/nnet/internal/tensor"
)

// LayerSpec describes the geometry of one layer.
//
// Dense layers use InputSize and OutputSize. Convolution layers use
// InputShape (channels, height, width) and KernelShape (out_channels,
// kernel_size); their sizes are derived.
type LayerSpec struct {
	Kind        LayerKind `json:"kind"`
	InputSize   int       `json:"input_size,omitempty"`
	OutputSize  int       `json:"output_size,omitempty"`
	InputShape  []int     `json:"input_shape,omitempty"`
	KernelShape []int     `json:"kernel_shape,omitempty"`
}

// StageSpec pairs a layer with the activation applied to its output.
type StageSpec struct {
	Layer      LayerSpec      `json:"layer"`
	Activation ActivationKind `json:"activation"`
}

// Architecture is the ordered list of stages of a network.
type Architecture struct {
	Stages []StageSpec `json:"stages"`
}

// NewLayer builds a freshly initialized layer from its spec.
func NewLayer(spec LayerSpec, rng *rand.Rand) (Layer, error) {
	switch spec.Kind {
	case KindDense:
		return NewDense(spec.InputSize, spec.OutputSize, rng)
	case KindConvolution:
		if len(spec.InputShape) != 3 || len(spec.KernelShape) != 2 {
			return nil, shapeErrorf("convolution.new", "expected input shape (c, h, w) and kernel shape (out_c, k), got %v and %v",
				spec.InputShape, spec.KernelShape)
		}
		return NewConvolution(
			[3]int{spec.InputShape[0], spec.InputShape[1], spec.InputShape[2]},
			[2]int{spec.KernelShape[0], spec.KernelShape[1]},
			rng,
		)
	default:
		return nil, invariantErrorf("layer", "unsupported layer kind %q", spec.Kind)
	}
}

// Stage is one (layer, activation) step of a network.
type Stage struct {
	Layer      Layer
	Activation Activation
}

// Network is an ordered pipeline of (layer, activation) stages trained with
// per-sample gradient descent.
//
// Example:
//
//	l1, _ := nn.NewDense(2, 4, rng)
//	l2, _ := nn.NewDense(4, 1, rng)
//	net, err := nn.New([]nn.Layer{l1, l2}, []nn.Activation{nn.NewTanh(), nn.NewTanh()})
//	losses, err := net.Train(nn.NewMSE(), xs, ys, 0.1, 10000, false)
//	out, err := net.Predict([]float64{1, 0})
type Network struct {
	stages []Stage
	logger *slog.Logger
}

// New pairs layers[i] with activations[i].
//
// Fails with an InvariantViolation when the lists differ in length or are
// empty, and with a ShapeError when adjacent stages disagree on flat size.
func New(layers []Layer, activations []Activation) (*Network, error) {
	if len(layers) != len(activations) {
		return nil, invariantErrorf("network.new", "%d layers but %d activations", len(layers), len(activations))
	}
	if len(layers) == 0 {
		return nil, invariantErrorf("network.new", "network has no stages")
	}

	stages := make([]Stage, len(layers))
	for i := range layers {
		if layers[i] == nil || activations[i] == nil {
			return nil, invariantErrorf("network.new", "stage %d: nil layer or activation", i)
		}
		if i > 0 && layers[i-1].OutputSize() != layers[i].InputSize() {
			return nil, shapeErrorf("network.new", "stage %d outputs %d scalars but stage %d expects %d",
				i-1, layers[i-1].OutputSize(), i, layers[i].InputSize())
		}
		if i > 0 {
			if err := chainMaps(layers[i-1], layers[i], i); err != nil {
				return nil, err
			}
		}
		stages[i] = Stage{Layer: layers[i], Activation: activations[i]}
	}

	return &Network{stages: stages, logger: slog.Default()}, nil
}

// chainMaps checks that a convolution fed by another convolution receives
// maps of exactly its input shape, not just the same number of scalars.
func chainMaps(prev, next Layer, i int) error {
	from, ok := prev.(*Convolution)
	if !ok {
		return nil
	}
	to, ok := next.(*Convolution)
	if !ok {
		return nil
	}
	if !from.OutputShape().Equal(to.InputShape()) {
		return shapeErrorf("network.new", "stage %d outputs maps %v but stage %d expects %v",
			i-1, from.OutputShape(), i, to.InputShape())
	}
	return nil
}

// Build constructs a freshly initialized network from an architecture.
func Build(arch Architecture, rng *rand.Rand) (*Network, error) {
	layers := make([]Layer, len(arch.Stages))
	activations := make([]Activation, len(arch.Stages))
	for i, stage := range arch.Stages {
		layer, err := NewLayer(stage.Layer, rng)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		activation, err := NewActivation(stage.Activation)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		layers[i], activations[i] = layer, activation
	}
	return New(layers, activations)
}

// Architecture returns the stage specs of the network.
func (n *Network) Architecture() Architecture {
	arch := Architecture{Stages: make([]StageSpec, len(n.stages))}
	for i, s := range n.stages {
		arch.Stages[i] = StageSpec{Layer: s.Layer.Spec(), Activation: s.Activation.Kind()}
	}
	return arch
}

// SetLogger sets the logger used for verbose training. Nil restores slog.Default().
func (n *Network) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// Stages returns the network stages. The slice is a copy; the layers are not.
func (n *Network) Stages() []Stage {
	return append([]Stage(nil), n.stages...)
}

// InputSize returns the number of scalars the first stage consumes.
func (n *Network) InputSize() int {
	return n.stages[0].Layer.InputSize()
}

// OutputSize returns the number of scalars the last stage produces.
func (n *Network) OutputSize() int {
	return n.stages[len(n.stages)-1].Layer.OutputSize()
}

// Params returns all parameter views in stage order, named
// "stages.<i>.<param>".
func (n *Network) Params() []Param {
	var params []Param
	for i, s := range n.stages {
		for _, p := range s.Layer.Params() {
			p.Name = fmt.Sprintf("stages.%d.%s", i, p.Name)
			params = append(params, p)
		}
	}
	return params
}

// Predict runs the input forward through every stage.
//
// Layer and activation caches are overwritten, so Predict must not be called
// concurrently on one network.
func (n *Network) Predict(input []float64) ([]float64, error) {
	value := tensor.NewDense(input)
	for i, s := range n.stages {
		var err error
		if value, err = s.Layer.Forward(value); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if value, err = s.Activation.Forward(value); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	if value.Kind() != tensor.Dense {
		return nil, invariantErrorf("network.predict", "terminal output is %s, expected dense", value.Kind())
	}
	return value.Data(), nil
}

// Train runs per-sample gradient descent over samples for the given number
// of epochs and returns the mean loss of every epoch.
//
// Samples are visited in order. Parameters are updated after every sample.
func (n *Network) Train(loss Loss, samples, targets [][]float64, learningRate float64, epochs int, verbose bool) ([]float64, error) {
	if len(samples) != len(targets) {
		return nil, shapeErrorf("network.train", "%d samples but %d targets", len(samples), len(targets))
	}
	if len(samples) == 0 {
		return nil, shapeErrorf("network.train", "no samples")
	}

	losses := make([]float64, 0, max(epochs, 0))
	for epoch := 0; epoch < epochs; epoch++ {
		var total float64
		for i := range samples {
			l, err := n.step(loss, samples[i], targets[i], learningRate)
			if err != nil {
				return losses, fmt.Errorf("epoch %d, sample %d: %w", epoch, i, err)
			}
			total += l
		}
		mean := total / float64(len(samples))
		losses = append(losses, mean)

		if verbose {
			n.logger.Info("epoch complete", "epoch", epoch+1, "epochs", epochs, "loss", mean)
		}
	}
	return losses, nil
}

// step trains on one sample and returns its loss.
func (n *Network) step(loss Loss, sample, target []float64, learningRate float64) (float64, error) {
	prediction, err := n.Predict(sample)
	if err != nil {
		return 0, err
	}
	l, err := loss.Loss(target, prediction)
	if err != nil {
		return 0, err
	}
	gradient, err := loss.Gradient(target, prediction)
	if err != nil {
		return 0, err
	}

	for i := len(n.stages) - 1; i >= 0; i-- {
		s := n.stages[i]
		if gradient, err = s.Activation.Backward(gradient); err != nil {
			return 0, fmt.Errorf("stage %d: %w", i, err)
		}
		if gradient, err = s.Layer.Backward(gradient, learningRate); err != nil {
			return 0, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return l, nil
}

// Clone returns a deep copy with empty caches sharing the logger.
func (n *Network) Clone() *Network {
	stages := make([]Stage, len(n.stages))
	for i, s := range n.stages {
		stages[i] = Stage{Layer: s.Layer.Clone(), Activation: s.Activation.Clone()}
	}
	return &Network{stages: stages, logger: n.logger}
}

// String returns one line per stage.
func (n *Network) String() string {
	var b strings.Builder
	b.WriteString("Network(\n")
	for i, s := range n.stages {
		fmt.Fprintf(&b, "  (%d): %v -> %s\n", i, s.Layer, s.Activation.Kind())
	}
	b.WriteString(")")
	return b.String()
}
