// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trainer provides data-parallel training for nn networks.
//
// Every epoch splits the samples into one contiguous batch per worker,
// trains a clone of the network on each batch concurrently, and merges the
// clones back into the network.
//
// Example:
//
//	cfg := trainer.DefaultConfig()
//	cfg.Epochs = 10
//	cfg.Verbose = true
//	losses, err := trainer.New(cfg).Run(net, nn.NewMSE(), images, targets)
package trainer

import (
	"github.com/born-ml/nnet/internal/trainer"
)

// Config holds configuration for a Trainer.
type Config = trainer.Config

// Trainer performs parallel per-sample gradient descent.
type Trainer = trainer.Trainer

// Merge combines the networks trained by the workers of one epoch.
type Merge = trainer.Merge

// ErrTooFewSamples is returned when there are fewer samples than workers.
var ErrTooFewSamples = trainer.ErrTooFewSamples

// DefaultConfig returns a configuration using every CPU.
func DefaultConfig() Config {
	return trainer.DefaultConfig()
}

// New creates a Trainer, replacing zero-valued fields with defaults.
func New(cfg Config) *Trainer {
	return trainer.New(cfg)
}

// Merge strategies.
var (
	MergePairwise Merge = trainer.MergePairwise
	MergeMean     Merge = trainer.MergeMean
)
