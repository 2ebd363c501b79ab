package nn

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnet/internal/serialization"
)

func assertSamePredictions(t *testing.T, want, got *Network, inputs [][]float64) {
	t.Helper()
	for _, x := range inputs {
		a, err := want.Predict(x)
		require.NoError(t, err)
		b, err := got.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func randomInputs(rng *rand.Rand, n, size int) [][]float64 {
	inputs := make([][]float64, n)
	for i := range inputs {
		inputs[i] = make([]float64, size)
		for j := range inputs[i] {
			inputs[i][j] = rng.Float64()
		}
	}
	return inputs
}

func TestMarshalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	net := convNetwork(t, rng)

	data, err := Marshal(net)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, net.Architecture(), loaded.Architecture())
	assertSamePredictions(t, net, loaded, randomInputs(rng, 5, 36))
}

func TestSaveLoadFile(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	net := xorNetwork(t, rng)
	path := filepath.Join(t.TempDir(), "xor.nnet")

	require.NoError(t, SaveFile(path, net))
	loaded, info, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Nil(t, info)
	assertSamePredictions(t, net, loaded, [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}})

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.nnet"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveCheckpoint(t *testing.T) {
	net := xorNetwork(t, rand.New(rand.NewSource(13)))
	path := filepath.Join(t.TempDir(), "ckpt.nnet")

	info := CheckpointInfo{Epoch: 7, Loss: 0.0625, LearningRate: 0.1, Workers: 4, Metadata: map[string]string{"dataset": "xor"}}
	require.NoError(t, SaveCheckpoint(path, net, info))

	loaded, got, err := LoadCheckpoint(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info, *got)
	assertSamePredictions(t, net, loaded, [][]float64{{1, 0}})

	plain, err := LoadFile(path)
	require.NoError(t, err)
	assertSamePredictions(t, net, plain, [][]float64{{0, 1}})
}

func TestDecodeReadFile(t *testing.T) {
	net := xorNetwork(t, rand.New(rand.NewSource(14)))
	path := filepath.Join(t.TempDir(), "ckpt.nnet")
	require.NoError(t, SaveCheckpoint(path, net, CheckpointInfo{Epoch: 2, Workers: 1}))

	f, err := serialization.ReadFile(path, serialization.DefaultReaderOptions())
	require.NoError(t, err)
	loaded, info, err := Decode(f)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 2, info.Epoch)
	assertSamePredictions(t, net, loaded, [][]float64{{1, 1}})

	f.Header.ModelType = "tokenizer"
	_, _, err = Decode(f)
	var verr *serialization.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUnmarshalCorruption(t *testing.T) {
	data, err := Marshal(xorNetwork(t, nil))
	require.NoError(t, err)

	corrupt := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), data...))
	}

	_, err = Unmarshal(corrupt(func(b []byte) []byte { b[len(b)-2] ^= 0x01; return b }))
	assert.ErrorIs(t, err, serialization.ErrChecksumMismatch)

	_, err = Unmarshal(corrupt(func(b []byte) []byte { b[0] = 'X'; return b }))
	assert.ErrorIs(t, err, serialization.ErrInvalidMagic)

	_, err = Unmarshal(corrupt(func(b []byte) []byte { return b[:len(b)-8] }))
	assert.ErrorIs(t, err, serialization.ErrTruncated)

	_, err = Unmarshal(nil)
	assert.ErrorIs(t, err, serialization.ErrTruncated)
}

// writeRaw encodes an arbitrary architecture and tensor table.
func writeRaw(t *testing.T, modelType, arch string, tensors []serialization.Tensor) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := serialization.Header{ModelType: modelType, Architecture: json.RawMessage(arch)}
	require.NoError(t, serialization.Write(&buf, header, tensors))
	return buf.Bytes()
}

func TestUnmarshalSchemaMismatch(t *testing.T) {
	dense := `{"stages":[{"layer":{"kind":"dense","input_size":2,"output_size":1},"activation":"tanh"}]}`
	weight := serialization.Tensor{Name: "stages.0.weight", Shape: []int{1, 2}, Data: []float64{1, 2}}
	bias := serialization.Tensor{Name: "stages.0.bias", Shape: []int{1}, Data: []float64{3}}

	tests := []struct {
		name      string
		modelType string
		arch      string
		tensors   []serialization.Tensor
		wantType  string
	}{
		{"unknown layer", modelType, `{"stages":[{"layer":{"kind":"pooling"},"activation":"tanh"}]}`, nil, "invalid_architecture"},
		{"unknown activation", modelType, `{"stages":[{"layer":{"kind":"dense","input_size":2,"output_size":1},"activation":"gelu"}]}`, []serialization.Tensor{weight, bias}, "invalid_architecture"},
		{"bad json", modelType, `"stages"`, nil, "invalid_architecture"},
		{"wrong model type", "tokenizer", dense, []serialization.Tensor{weight, bias}, "invalid_model_type"},
		{"missing tensor", modelType, dense, []serialization.Tensor{weight, {Name: "stages.0.other", Shape: []int{1}, Data: []float64{0}}}, "missing_tensor"},
		{"extra tensor", modelType, dense, []serialization.Tensor{weight, bias, {Name: "x", Shape: []int{1}, Data: []float64{0}}}, "tensor_count_mismatch"},
		{"shape mismatch", modelType, dense, []serialization.Tensor{{Name: "stages.0.weight", Shape: []int{2, 1}, Data: []float64{1, 2}}, bias}, "shape_mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(writeRaw(t, tt.modelType, tt.arch, tt.tensors))
			var verr *serialization.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantType, verr.Type)
		})
	}

	net, err := Unmarshal(writeRaw(t, modelType, dense, []serialization.Tensor{bias, weight}))
	require.NoError(t, err, "tensor order in the file does not matter")
	out, err := net.Predict([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.99998771, out[0], 1e-6) // tanh(1 + 2 + 3)
}
