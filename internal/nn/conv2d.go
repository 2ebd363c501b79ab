package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/nnet/internal/parallel"
	"github.com/born-ml/nnet/internal/tensor"
)

// Convolution is a multi-channel 2D correlation layer (stride 1, no padding).
//
// Input shape:  [in_channels, height, width]
// Kernel shape: [in_channels, out_channels, kernel_size, kernel_size]
// Bias shape:   [out_channels], broadcast over every output position
// Output shape: [out_channels, height-kernel_size+1, width-kernel_size+1]
//
// Example:
//
//	// 1 channel 28x28 -> 4 channels 24x24, 5x5 kernels
//	conv, err := nn.NewConvolution([3]int{1, 28, 28}, [2]int{4, 5}, rng)
type Convolution struct {
	inChannels  int
	height      int
	width       int
	outChannels int
	kernelSize  int
	outHeight   int
	outWidth    int

	kernelData []float64     // contiguous [in][out][k*k]
	kernels    [][][]float64 // views into kernelData
	biases     []float64     // [out_channels]

	window     []int   // sliding index set of a k x k patch in an input map
	gradWindow []int   // sliding index set of an out_h x out_w patch in an input map
	fullIndex  [][]tap // per input position, the (output, kernel) pairs covering it

	input [][]float64 // last forward input maps, nil before the first call

	par parallel.Config
}

// tap links one output position and one kernel cell to an input position.
type tap struct {
	output int
	kernel int
}

// NewConvolution creates a convolution layer with uniform [-1, 1] kernels
// and biases.
//
// Parameters:
//   - inputShape: (channels, height, width)
//   - kernelShape: (output_channels, kernel_size)
//   - rng: random source, nil for the package-level math/rand source
//
// Fails with a ShapeError when a dimension is not positive or
// kernel_size > min(height, width).
func NewConvolution(inputShape [3]int, kernelShape [2]int, rng *rand.Rand) (*Convolution, error) {
	inChannels, height, width := inputShape[0], inputShape[1], inputShape[2]
	outChannels, kernelSize := kernelShape[0], kernelShape[1]

	if err := (tensor.Shape{inChannels, height, width, outChannels, kernelSize}).Validate(); err != nil {
		return nil, shapeErrorf("convolution.new", "input %v, kernel %v: %v", inputShape, kernelShape, err)
	}
	if kernelSize > min(height, width) {
		return nil, shapeErrorf("convolution.new", "kernel size %d exceeds input %dx%d", kernelSize, height, width)
	}

	c := &Convolution{
		inChannels:  inChannels,
		height:      height,
		width:       width,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		outHeight:   height - kernelSize + 1,
		outWidth:    width - kernelSize + 1,
		kernelData:  make([]float64, inChannels*outChannels*kernelSize*kernelSize),
		biases:      make([]float64, outChannels),
		par:         parallel.DefaultConfig(),
	}
	Uniform(c.kernelData, 1, rng)
	Uniform(c.biases, 1, rng)
	c.index()

	return c, nil
}

// index builds the kernel views and the correlation index sets.
// They depend on the geometry only, so they are computed once per layer.
func (c *Convolution) index() {
	k := c.kernelSize
	cells := k * k

	c.kernels = make([][][]float64, c.inChannels)
	for ic := range c.kernels {
		c.kernels[ic] = make([][]float64, c.outChannels)
		for oc := range c.kernels[ic] {
			start := (ic*c.outChannels + oc) * cells
			c.kernels[ic][oc] = c.kernelData[start : start+cells : start+cells]
		}
	}

	c.window = slidingWindow(k, k, c.width)
	c.gradWindow = slidingWindow(c.outHeight, c.outWidth, c.width)

	c.fullIndex = make([][]tap, c.height*c.width)
	for r := 0; r < c.outHeight; r++ {
		for col := 0; col < c.outWidth; col++ {
			out := r*c.outWidth + col
			for i := 0; i < k; i++ {
				for j := 0; j < k; j++ {
					in := (r+i)*c.width + col + j
					c.fullIndex[in] = append(c.fullIndex[in], tap{output: out, kernel: i*k + j})
				}
			}
		}
	}
}

// slidingWindow returns the offsets of a rows x cols patch anchored at index
// 0 of a row-major map whose rows are width long. Adding the anchor index of
// any position yields the patch at that position.
func slidingWindow(rows, cols, width int) []int {
	offsets := make([]int, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			offsets = append(offsets, i*width+j)
		}
	}
	return offsets
}

// correlate accumulates the valid correlation of base with kernel into dst.
//
// dst is outH x outW; window holds the offsets of the kernel-sized patch in
// base (see slidingWindow); base rows are baseWidth long.
func correlate(dst, base, kernel []float64, window []int, outH, outW, baseWidth int) {
	for r := 0; r < outH; r++ {
		for col := 0; col < outW; col++ {
			anchor := r*baseWidth + col
			var sum float64
			for i, off := range window {
				sum += base[anchor+off] * kernel[i]
			}
			dst[r*outW+col] += sum
		}
	}
}

// Kind returns KindConvolution.
func (c *Convolution) Kind() LayerKind { return KindConvolution }

// Forward correlates every input channel with its kernel bank.
//
// A Dense input is split into in_channels consecutive maps (a single map for
// one input channel). The input maps are copied into the layer cache.
func (c *Convolution) Forward(input tensor.Value) (tensor.Value, error) {
	channels, err := c.channels(input)
	if err != nil {
		return tensor.Value{}, err
	}

	c.input = make([][]float64, len(channels))
	for ic, ch := range channels {
		c.input[ic] = append([]float64(nil), ch...)
	}

	outSize := c.outHeight * c.outWidth
	output := make([][]float64, c.outChannels)
	parallel.For(c.outChannels, func(oc int) {
		out := make([]float64, outSize)
		for ic := 0; ic < c.inChannels; ic++ {
			correlate(out, c.input[ic], c.kernels[ic][oc], c.window, c.outHeight, c.outWidth, c.width)
		}
		floats.AddConst(c.biases[oc], out)
		output[oc] = out
	}, c.par)

	return tensor.NewMultiChannel(output, c.outHeight, c.outWidth), nil
}

// channels converts input to in_channels maps of height x width.
func (c *Convolution) channels(input tensor.Value) ([][]float64, error) {
	const op = "convolution.forward"
	mapSize := c.height * c.width

	switch input.Kind() {
	case tensor.Dense:
		data := input.Data()
		if len(data) != c.inChannels*mapSize {
			return nil, shapeErrorf(op, "expected %d scalars for input %v, got %d",
				c.inChannels*mapSize, c.inputShape(), len(data))
		}
		channels, _ := tensor.Split(data, c.inChannels)
		return channels, nil
	case tensor.MultiChannel:
		channels := input.Channels()
		if len(channels) != c.inChannels {
			return nil, shapeErrorf(op, "expected %d channels, got %d", c.inChannels, len(channels))
		}
		for ic, ch := range channels {
			if len(ch) != mapSize {
				return nil, shapeErrorf(op, "channel %d: expected %d scalars (%dx%d), got %d",
					ic, mapSize, c.height, c.width, len(ch))
			}
		}
		return channels, nil
	default:
		return nil, stateErrorf(op, "input value is uninitialized")
	}
}

// Backward applies one gradient descent step and returns dL/dx.
//
// outputGradient is flat [out_channels][out_h*out_w].
//
//	kernel_gradient[ic][oc] = correlate(input[ic], grad[oc])      (k x k)
//	input_gradient[ic]      = full correlation of grad with the pre-update kernels
//	kernels[ic][oc]        -= lr * kernel_gradient[ic][oc]
//	bias[oc]               -= lr * Σ grad[oc]
func (c *Convolution) Backward(outputGradient []float64, learningRate float64) ([]float64, error) {
	const op = "convolution.backward"
	if c.input == nil {
		return nil, stateErrorf(op, "backward called before forward")
	}
	if len(outputGradient) != c.OutputSize() {
		return nil, shapeErrorf(op, "expected gradient with %d elements for output %v, got %d",
			c.OutputSize(), c.outputShape(), len(outputGradient))
	}

	grad, _ := tensor.Split(outputGradient, c.outChannels)
	cells := c.kernelSize * c.kernelSize

	kernelGradient := make([][][]float64, c.inChannels)
	for ic := range kernelGradient {
		kernelGradient[ic] = make([][]float64, c.outChannels)
	}
	parallel.ForBatch(c.inChannels, c.outChannels, func(ic, oc int) {
		kg := Zeros(cells)
		correlate(kg, c.input[ic], grad[oc], c.gradWindow, c.kernelSize, c.kernelSize, c.width)
		kernelGradient[ic][oc] = kg
	}, c.par)

	inputGradient := c.fullCorrelation(grad)

	for ic := 0; ic < c.inChannels; ic++ {
		for oc := 0; oc < c.outChannels; oc++ {
			floats.AddScaled(c.kernels[ic][oc], -learningRate, kernelGradient[ic][oc])
		}
	}
	for oc := range c.biases {
		c.biases[oc] -= learningRate * floats.Sum(grad[oc])
	}

	return inputGradient, nil
}

// fullCorrelation scatters the output gradient back onto the input positions
// through the precomputed index map. Boundary positions receive fewer
// contributions than interior ones.
func (c *Convolution) fullCorrelation(grad [][]float64) []float64 {
	mapSize := c.height * c.width
	inputGradient := make([]float64, c.inChannels*mapSize)

	parallel.For(c.inChannels, func(ic int) {
		dst := inputGradient[ic*mapSize : (ic+1)*mapSize]
		for oc := 0; oc < c.outChannels; oc++ {
			kernel := c.kernels[ic][oc]
			g := grad[oc]
			for p, taps := range c.fullIndex {
				var sum float64
				for _, t := range taps {
					sum += g[t.output] * kernel[t.kernel]
				}
				dst[p] += sum
			}
		}
	}, c.par)

	return inputGradient
}

// Params returns [kernel, bias].
func (c *Convolution) Params() []Param {
	k := c.kernelSize
	return []Param{
		{Name: "kernel", Shape: tensor.Shape{c.inChannels, c.outChannels, k, k}, Data: c.kernelData},
		{Name: "bias", Shape: tensor.Shape{c.outChannels}, Data: c.biases},
	}
}

// Kernel returns the k*k kernel connecting input channel ic to output
// channel oc. Mutating it changes the layer.
func (c *Convolution) Kernel(ic, oc int) []float64 {
	return c.kernels[ic][oc]
}

// Biases returns the per-output-channel biases. Mutating them changes the layer.
func (c *Convolution) Biases() []float64 {
	return c.biases
}

// InputSize returns channels*height*width.
func (c *Convolution) InputSize() int {
	return c.inChannels * c.height * c.width
}

// OutputSize returns out_channels*out_h*out_w.
func (c *Convolution) OutputSize() int {
	return c.outChannels * c.outHeight * c.outWidth
}

// InputShape returns (channels, height, width).
func (c *Convolution) InputShape() tensor.Shape {
	return c.inputShape()
}

// OutputShape returns (out_channels, height-k+1, width-k+1).
func (c *Convolution) OutputShape() tensor.Shape {
	return c.outputShape()
}

func (c *Convolution) inputShape() tensor.Shape {
	return tensor.Shape{c.inChannels, c.height, c.width}
}

func (c *Convolution) outputShape() tensor.Shape {
	return tensor.Shape{c.outChannels, c.outHeight, c.outWidth}
}

// Spec describes the layer geometry.
func (c *Convolution) Spec() LayerSpec {
	return LayerSpec{
		Kind:        KindConvolution,
		InputSize:   c.InputSize(),
		OutputSize:  c.OutputSize(),
		InputShape:  []int{c.inChannels, c.height, c.width},
		KernelShape: []int{c.outChannels, c.kernelSize},
	}
}

// Clone returns a deep copy without the cached input.
func (c *Convolution) Clone() Layer {
	clone := *c
	clone.kernelData = append([]float64(nil), c.kernelData...)
	clone.biases = append([]float64(nil), c.biases...)
	clone.input = nil
	clone.kernels = make([][][]float64, c.inChannels)
	cells := c.kernelSize * c.kernelSize
	for ic := range clone.kernels {
		clone.kernels[ic] = make([][]float64, c.outChannels)
		for oc := range clone.kernels[ic] {
			start := (ic*c.outChannels + oc) * cells
			clone.kernels[ic][oc] = clone.kernelData[start : start+cells : start+cells]
		}
	}
	// window, gradWindow and fullIndex are read-only and shared.
	return &clone
}

// String returns a string representation of the layer.
func (c *Convolution) String() string {
	return fmt.Sprintf("Convolution(input=%v, out_channels=%d, kernel_size=%d, output=%v)",
		c.inputShape(), c.outChannels, c.kernelSize, c.outputShape())
}
