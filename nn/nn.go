// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/nnet/internal/nn"
)

// Layer is the interface shared by the Dense and Convolution layers.
type Layer = nn.Layer

// LayerKind identifies a layer variant.
type LayerKind = nn.LayerKind

// Layer kinds.
const (
	KindDense       = nn.KindDense
	KindConvolution = nn.KindConvolution
)

// Param is a named view over a trainable parameter array.
type Param = nn.Param

// Layers

// Dense is a fully connected layer computing W·x + b.
type Dense = nn.Dense

// NewDense creates a Dense layer with uniform [-1, 1] weights and biases.
//
// Example:
//
//	layer, err := nn.NewDense(784, 50, rand.New(rand.NewSource(1)))
func NewDense(inputSize, outputSize int, rng *rand.Rand) (*Dense, error) {
	return nn.NewDense(inputSize, outputSize, rng)
}

// Convolution is a multi-channel 2D correlation layer (stride 1, no padding).
type Convolution = nn.Convolution

// NewConvolution creates a convolution layer.
//
// Example:
//
//	// (channels, height, width), (output channels, kernel size)
//	conv, err := nn.NewConvolution([3]int{1, 28, 28}, [2]int{4, 5}, rng)
func NewConvolution(inputShape [3]int, kernelShape [2]int, rng *rand.Rand) (*Convolution, error) {
	return nn.NewConvolution(inputShape, kernelShape, rng)
}

// NewLayer builds a freshly initialized layer from its spec.
func NewLayer(spec LayerSpec, rng *rand.Rand) (Layer, error) {
	return nn.NewLayer(spec, rng)
}

// Activations

// Activation is an elementwise function applied after a layer.
type Activation = nn.Activation

// ActivationKind identifies an activation variant.
type ActivationKind = nn.ActivationKind

// Activation kinds.
const (
	KindTanh    = nn.KindTanh
	KindSigmoid = nn.KindSigmoid
	KindReLU    = nn.KindReLU
)

// Tanh is the hyperbolic tangent activation.
type Tanh = nn.Tanh

// Sigmoid is the logistic activation.
type Sigmoid = nn.Sigmoid

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh { return nn.NewTanh() }

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return nn.NewReLU() }

// NewActivation returns an activation of the given kind.
func NewActivation(kind ActivationKind) (Activation, error) {
	return nn.NewActivation(kind)
}

// Loss functions

// Loss is a pairwise function over (truth, prediction) vectors.
type Loss = nn.Loss

// MSE is the mean squared error loss.
type MSE = nn.MSE

// NewMSE creates an MSE loss.
func NewMSE() MSE { return nn.NewMSE() }

// Network

// Network is an ordered pipeline of (layer, activation) stages.
type Network = nn.Network

// Stage is one (layer, activation) step of a network.
type Stage = nn.Stage

// Architecture is the ordered list of stages of a network.
type Architecture = nn.Architecture

// StageSpec pairs a layer spec with an activation kind.
type StageSpec = nn.StageSpec

// LayerSpec describes the geometry of one layer.
type LayerSpec = nn.LayerSpec

// New pairs layers[i] with activations[i].
func New(layers []Layer, activations []Activation) (*Network, error) {
	return nn.New(layers, activations)
}

// Build constructs a freshly initialized network from an architecture.
func Build(arch Architecture, rng *rand.Rand) (*Network, error) {
	return nn.Build(arch, rng)
}

// Errors

// Error types and their errors.Is targets.
type (
	ShapeError         = nn.ShapeError
	StateError         = nn.StateError
	InvariantViolation = nn.InvariantViolation
)

// Sentinel errors.
var (
	ErrShape     = nn.ErrShape
	ErrState     = nn.ErrState
	ErrInvariant = nn.ErrInvariant
)
