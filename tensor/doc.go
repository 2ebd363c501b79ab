// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the values that flow between network stages.
//
// # Overview
//
// A Value is one of three variants:
//   - Dense: a flat feature vector
//   - MultiChannel: channels of flattened row-major height x width maps
//   - Uninitialized: the zero Value
//
// Layers convert between variants explicitly: Dense layers flatten
// multi-channel input channel-major, Convolution layers split a flat vector
// into their input channels.
//
// # Basic Usage
//
//	x := tensor.NewDense([]float64{0.1, 0.2, 0.3})
//	maps := tensor.NewMultiChannel([][]float64{ch0, ch1}, 28, 28)
//	flat := maps.Flatten() // ch0 followed by ch1
package tensor
