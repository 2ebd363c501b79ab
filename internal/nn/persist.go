package nn

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/born-ml/nnet/internal/serialization"
	"github.com/born-ml/nnet/internal/tensor"
)

const modelType = "network"

// CheckpointInfo is the training state stored alongside a checkpoint.
type CheckpointInfo struct {
	Epoch        int               // Completed epochs (1-based)
	Loss         float64           // Mean loss of the last epoch
	LearningRate float64           // Learning rate used
	Workers      int               // Parallel workers merged per epoch
	Metadata     map[string]string // Free-form metadata
}

// Marshal encodes the network architecture and parameters in .nnet format.
func Marshal(net *Network) ([]byte, error) {
	header, tensors, err := encode(net, nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := serialization.Write(&buf, header, tensors); err != nil {
		return nil, fmt.Errorf("nn.marshal: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a network written by Marshal, SaveFile or SaveCheckpoint.
//
// Format errors (ErrInvalidMagic, ErrChecksumMismatch, ErrTruncated, ...)
// and schema mismatches (*serialization.ValidationError) are wrapped.
func Unmarshal(data []byte) (*Network, error) {
	f, err := serialization.Read(bytes.NewReader(data), serialization.DefaultReaderOptions())
	if err != nil {
		return nil, fmt.Errorf("nn.unmarshal: %w", err)
	}
	net, _, err := Decode(f)
	return net, err
}

// SaveFile writes the network to path atomically.
func SaveFile(path string, net *Network) error {
	header, tensors, err := encode(net, nil)
	if err != nil {
		return err
	}
	if err := serialization.WriteFile(path, header, tensors); err != nil {
		return fmt.Errorf("nn.save %s: %w", path, err)
	}
	return nil
}

// SaveCheckpoint writes the network with its training state to path atomically.
func SaveCheckpoint(path string, net *Network, info CheckpointInfo) error {
	header, tensors, err := encode(net, &info)
	if err != nil {
		return err
	}
	if err := serialization.WriteFile(path, header, tensors); err != nil {
		return fmt.Errorf("nn.checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a network from path, discarding checkpoint information.
func LoadFile(path string) (*Network, error) {
	net, _, err := LoadCheckpoint(path)
	return net, err
}

// LoadCheckpoint reads a network and its training state from path.
// The returned info is nil when the file is not a checkpoint.
func LoadCheckpoint(path string) (*Network, *CheckpointInfo, error) {
	f, err := serialization.ReadFile(path, serialization.DefaultReaderOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("nn.load %s: %w", path, err)
	}
	return Decode(f)
}

// Decode builds a network and its training state from an already read file.
// The returned info is nil when the file is not a checkpoint.
func Decode(f *serialization.File) (*Network, *CheckpointInfo, error) {
	net, err := decode(f)
	if err != nil {
		return nil, nil, err
	}

	var info *CheckpointInfo
	if cp := f.Header.Checkpoint; cp != nil {
		info = &CheckpointInfo{
			Epoch:        cp.Epoch,
			Loss:         cp.Loss,
			LearningRate: cp.LearningRate,
			Workers:      cp.Workers,
			Metadata:     f.Header.Metadata,
		}
	}
	return net, info, nil
}

func encode(net *Network, info *CheckpointInfo) (serialization.Header, []serialization.Tensor, error) {
	arch, err := json.Marshal(net.Architecture())
	if err != nil {
		return serialization.Header{}, nil, fmt.Errorf("nn.marshal: architecture: %w", err)
	}

	header := serialization.Header{
		ModelType:    modelType,
		Architecture: arch,
	}
	if info != nil {
		header.Metadata = info.Metadata
		header.Checkpoint = &serialization.CheckpointMeta{
			Epoch:        info.Epoch,
			Loss:         info.Loss,
			LearningRate: info.LearningRate,
			Workers:      info.Workers,
		}
	}

	params := net.Params()
	tensors := make([]serialization.Tensor, len(params))
	for i, p := range params {
		tensors[i] = serialization.Tensor{Name: p.Name, Shape: []int(p.Shape), Data: p.Data}
	}
	return header, tensors, nil
}

func decode(f *serialization.File) (*Network, error) {
	if f.Header.ModelType != modelType {
		return nil, fmt.Errorf("nn.unmarshal: %w", &serialization.ValidationError{
			Type:    "invalid_model_type",
			Details: fmt.Sprintf("got %q, expected %q", f.Header.ModelType, modelType),
		})
	}

	var arch Architecture
	if err := json.Unmarshal(f.Header.Architecture, &arch); err != nil {
		return nil, fmt.Errorf("nn.unmarshal: %w: %w", &serialization.ValidationError{
			Type:    "invalid_architecture",
			Details: "cannot decode stage list",
		}, err)
	}

	net, err := Build(arch, nil)
	if err != nil {
		return nil, fmt.Errorf("nn.unmarshal: %w: %w", &serialization.ValidationError{
			Type:    "invalid_architecture",
			Details: "cannot build network",
		}, err)
	}

	params := net.Params()
	if len(params) != len(f.Tensors) {
		return nil, fmt.Errorf("nn.unmarshal: %w", &serialization.ValidationError{
			Type:    "tensor_count_mismatch",
			Details: fmt.Sprintf("architecture has %d parameters, file has %d tensors", len(params), len(f.Tensors)),
		})
	}
	for _, p := range params {
		t, ok := f.Tensor(p.Name)
		if !ok {
			return nil, fmt.Errorf("nn.unmarshal: %w", &serialization.ValidationError{
				Type:    "missing_tensor",
				Tensor:  p.Name,
				Details: "parameter not present in file",
			})
		}
		if !p.Shape.Equal(tensor.Shape(t.Shape)) || len(t.Data) != len(p.Data) {
			return nil, fmt.Errorf("nn.unmarshal: %w", &serialization.ValidationError{
				Type:    "shape_mismatch",
				Tensor:  p.Name,
				Details: fmt.Sprintf("architecture expects %v, file has %v", p.Shape, tensor.Shape(t.Shape)),
			})
		}
		copy(p.Data, t.Data)
	}
	return net, nil
}
