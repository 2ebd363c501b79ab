package serialization

import (
	"encoding/json"
	"time"
)

// Format constants.
const (
	MagicBytes      = "NNET"
	FormatVersion   = 1    // SHA-256 checksummed data section
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// DTypeFloat64 is the only element type stored in the data section.
const DTypeFloat64 = "float64"

const float64Size = 8

// Flags for the .nnet format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHasCheckpoint uint32 = 1 << 1 // bit 1: checkpoint info included
)

// Header represents the JSON header in a .nnet file.
type Header struct {
	FormatVersion int               `json:"format_version"`       // Version of the .nnet format
	Version       string            `json:"nnet_version"`         // Version of nnet that created this file
	ModelType     string            `json:"model_type"`           // Type of model (e.g., "network")
	CreatedAt     time.Time         `json:"created_at"`           // When the file was created
	Architecture  json.RawMessage   `json:"architecture"`         // Stage layout, decoded by the model package
	Tensors       []TensorMeta      `json:"tensors"`              // Tensor table
	Metadata      map[string]string `json:"metadata"`             // Custom metadata
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"` // Training state (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Epoch        int            `json:"epoch"`                   // Completed epochs (1-based)
	Loss         float64        `json:"loss"`                    // Mean loss of the epoch
	LearningRate float64        `json:"learning_rate"`           // Learning rate used
	Workers      int            `json:"workers"`                 // Parallel workers merged
	TrainingMeta map[string]any `json:"training_meta,omitempty"` // Additional training metadata
}

// TensorMeta describes a tensor in the .nnet file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "stages.0.weight")
	DType  string `json:"dtype"`  // Data type, always "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// Tensor is a named float64 array with its logical shape.
type Tensor struct {
	Name  string
	Shape []int
	Data  []float64
}

// NumElements returns the product of the shape dimensions.
func (m TensorMeta) NumElements() int64 {
	n := int64(1)
	for _, d := range m.Shape {
		n *= int64(d)
	}
	return n
}

// alignedOffset returns the data section offset for a header of headerSize bytes.
func alignedOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-(pos%HeaderAlignment))%HeaderAlignment
}
