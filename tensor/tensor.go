// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/nnet/internal/tensor"
)

// Value is the data flowing between network stages.
type Value = tensor.Value

// Kind tags the variant held by a Value.
type Kind = tensor.Kind

// Shape represents the dimensions of a value or parameter.
type Shape = tensor.Shape

// Value variants.
const (
	Uninitialized = tensor.Uninitialized
	Dense         = tensor.Dense
	MultiChannel  = tensor.MultiChannel
)

// NewDense wraps a feature vector without copying it.
func NewDense(data []float64) Value {
	return tensor.NewDense(data)
}

// NewMultiChannel wraps channel maps of height x width scalars each without copying them.
func NewMultiChannel(channels [][]float64, height, width int) Value {
	return tensor.NewMultiChannel(channels, height, width)
}

// Split cuts a flat vector into n equal consecutive channels.
func Split(data []float64, n int) ([][]float64, bool) {
	return tensor.Split(data, n)
}
