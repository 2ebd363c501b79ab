// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers, activations, loss and network pipeline of
// the nnet training engine.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Convolution
//   - Activations: Tanh, Sigmoid, ReLU
//   - Loss functions: MSE
//   - Network: ordered (layer, activation) stages trained with per-sample SGD
//   - Persistence: Marshal, Unmarshal, SaveFile, LoadFile, SaveCheckpoint
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(42))
//	l1, _ := nn.NewDense(2, 4, rng)
//	l2, _ := nn.NewDense(4, 1, rng)
//	net, err := nn.New([]nn.Layer{l1, l2}, []nn.Activation{nn.NewTanh(), nn.NewTanh()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	losses, err := net.Train(nn.NewMSE(), samples, targets, 0.1, 10000, false)
//	out, err := net.Predict([]float64{1, 0})
//
// # Architectures
//
// A network can also be built from a declarative stage list, which is what
// model files store:
//
//	net, err := nn.Build(nn.Architecture{Stages: []nn.StageSpec{
//	    {Layer: nn.LayerSpec{Kind: nn.KindConvolution, InputShape: []int{1, 28, 28}, KernelShape: []int{4, 5}}, Activation: nn.KindReLU},
//	    {Layer: nn.LayerSpec{Kind: nn.KindDense, InputSize: 4 * 24 * 24, OutputSize: 10}, Activation: nn.KindSigmoid},
//	}}, rng)
//
// # Errors
//
// Shape mismatches, misuse of stage caches and invalid pipelines are
// reported as *ShapeError, *StateError and *InvariantViolation; match them
// with errors.Is against ErrShape, ErrState and ErrInvariant.
//
// # Concurrency
//
// Forward calls cache their input, so a network must not be used from
// several goroutines at once. Use Clone, or the trainer package for
// data-parallel training.
package nn
