// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/nnet/internal/nn"
)

// CheckpointInfo is the training state stored alongside a checkpoint.
type CheckpointInfo = nn.CheckpointInfo

// Marshal encodes the network in .nnet format.
func Marshal(net *Network) ([]byte, error) {
	return nn.Marshal(net)
}

// Unmarshal decodes a network written by Marshal, SaveFile or SaveCheckpoint.
func Unmarshal(data []byte) (*Network, error) {
	return nn.Unmarshal(data)
}

// SaveFile writes the network to path atomically.
//
// Example:
//
//	if err := nn.SaveFile("xor.nnet", net); err != nil {
//	    log.Fatal(err)
//	}
func SaveFile(path string, net *Network) error {
	return nn.SaveFile(path, net)
}

// LoadFile reads a network from path.
func LoadFile(path string) (*Network, error) {
	return nn.LoadFile(path)
}

// SaveCheckpoint writes the network with its training state to path atomically.
func SaveCheckpoint(path string, net *Network, info CheckpointInfo) error {
	return nn.SaveCheckpoint(path, net, info)
}

// LoadCheckpoint reads a network and its training state (nil if absent).
func LoadCheckpoint(path string) (*Network, *CheckpointInfo, error) {
	return nn.LoadCheckpoint(path)
}
