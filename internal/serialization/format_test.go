package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleTensors() []Tensor {
	return []Tensor{
		{Name: "stages.0.weight", Shape: []int{2, 3}, Data: []float64{1, -2, 3.5, 0, 1e-9, -7}},
		{Name: "stages.0.bias", Shape: []int{2}, Data: []float64{0.25, -0.5}},
	}
}

func encode(t *testing.T, header Header, tensors []Tensor) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, header, tensors); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

// TestRoundTrip verifies that tensors, header fields and order survive encoding.
func TestRoundTrip(t *testing.T) {
	header := Header{
		ModelType:    "network",
		Architecture: json.RawMessage(`{"stages":[]}`),
		Metadata:     map[string]string{"dataset": "xor"},
		Checkpoint:   &CheckpointMeta{Epoch: 3, Loss: 0.125, LearningRate: 0.1, Workers: 4},
	}
	data := encode(t, header, sampleTensors())

	if len(data) < FixedHeaderSize {
		t.Fatalf("Encoded file too short: %d bytes", len(data))
	}
	if string(data[:4]) != MagicBytes {
		t.Errorf("Expected magic %q, got %q", MagicBytes, data[:4])
	}

	f, err := Read(bytes.NewReader(data), DefaultReaderOptions())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if f.Flags&FlagHasMetadata == 0 || f.Flags&FlagHasCheckpoint == 0 {
		t.Errorf("Expected metadata and checkpoint flags, got %b", f.Flags)
	}
	if f.Header.FormatVersion != FormatVersion || f.Header.Version != Version {
		t.Errorf("Unexpected versions: format=%d nnet=%q", f.Header.FormatVersion, f.Header.Version)
	}
	if f.Header.ModelType != "network" || f.Header.Metadata["dataset"] != "xor" {
		t.Errorf("Header fields not preserved: %+v", f.Header)
	}
	if string(f.Header.Architecture) != `{"stages":[]}` {
		t.Errorf("Architecture not preserved: %s", f.Header.Architecture)
	}
	if f.Header.Checkpoint == nil || f.Header.Checkpoint.Epoch != 3 || f.Header.Checkpoint.Loss != 0.125 {
		t.Errorf("Checkpoint not preserved: %+v", f.Header.Checkpoint)
	}

	want := sampleTensors()
	if len(f.Tensors) != len(want) {
		t.Fatalf("Expected %d tensors, got %d", len(want), len(f.Tensors))
	}
	for i, tensor := range f.Tensors {
		if tensor.Name != want[i].Name {
			t.Errorf("Tensor %d: expected name %q, got %q", i, want[i].Name, tensor.Name)
		}
		for j, v := range tensor.Data {
			if v != want[i].Data[j] {
				t.Errorf("%s[%d]: expected %v, got %v", tensor.Name, j, want[i].Data[j], v)
			}
		}
	}

	if _, ok := f.Tensor("stages.0.bias"); !ok {
		t.Error("Tensor lookup by name failed")
	}
}

// TestDataAlignment verifies the data section starts on a 64-byte boundary.
func TestDataAlignment(t *testing.T) {
	data := encode(t, Header{ModelType: "network"}, sampleTensors())

	headerSize := int64(binary.LittleEndian.Uint64(data[16:24]))
	dataSize := int64(binary.LittleEndian.Uint64(data[24:32]))
	offset := alignedOffset(headerSize)

	if offset%HeaderAlignment != 0 {
		t.Errorf("Data offset %d not aligned", offset)
	}
	if int64(len(data)) != offset+dataSize {
		t.Errorf("Expected file size %d, got %d", offset+dataSize, len(data))
	}
	if dataSize != 8*8 {
		t.Errorf("Expected 64 data bytes, got %d", dataSize)
	}
}

// TestCorruptionDetection covers checksum, magic, version and truncation failures.
func TestCorruptionDetection(t *testing.T) {
	valid := encode(t, Header{ModelType: "network"}, sampleTensors())

	tests := []struct {
		name    string
		corrupt func([]byte) []byte
		want    error
	}{
		{"flipped data byte", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }, ErrChecksumMismatch},
		{"bad magic", func(b []byte) []byte { copy(b, "BORN"); return b }, ErrInvalidMagic},
		{"bad version", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[4:8], 9); return b }, ErrUnsupportedVersion},
		{"truncated data", func(b []byte) []byte { return b[:len(b)-3] }, ErrTruncated},
		{"truncated fixed header", func(b []byte) []byte { return b[:10] }, ErrTruncated},
		{"empty", func([]byte) []byte { return nil }, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.corrupt(append([]byte(nil), valid...))
			_, err := Read(bytes.NewReader(data), DefaultReaderOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got: %v", tt.want, err)
			}
		})
	}
}

// TestSkipChecksumValidation verifies that corrupted data loads when checks are skipped.
func TestSkipChecksumValidation(t *testing.T) {
	data := encode(t, Header{ModelType: "network"}, sampleTensors())
	data[len(data)-1] ^= 0xFF

	opts := DefaultReaderOptions()
	opts.SkipChecksumValidation = true
	if _, err := Read(bytes.NewReader(data), opts); err != nil {
		t.Errorf("Expected load without checksum validation, got: %v", err)
	}
}

// TestWriteRejectsInvalidTables verifies that Write refuses tables it could not read back.
func TestWriteRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name    string
		tensors []Tensor
	}{
		{"shape mismatch", []Tensor{{Name: "w", Shape: []int{2, 2}, Data: []float64{1, 2, 3}}}},
		{"duplicate", []Tensor{{Name: "w", Shape: []int{1}, Data: []float64{1}}, {Name: "w", Shape: []int{1}, Data: []float64{2}}}},
		{"bad name", []Tensor{{Name: "../w", Shape: []int{1}, Data: []float64{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, Header{}, tt.tensors); err == nil {
				t.Error("Expected Write to fail")
			}
		})
	}
}

// TestWriteFile verifies the atomic file writer leaves only the target behind.
func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.nnet")

	for epoch := 1; epoch <= 2; epoch++ {
		header := Header{ModelType: "network", Checkpoint: &CheckpointMeta{Epoch: epoch}}
		if err := WriteFile(path, header, sampleTensors()); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the model file, found %d entries", len(entries))
	}

	f, err := ReadFile(path, DefaultReaderOptions())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if f.Header.Checkpoint.Epoch != 2 {
		t.Errorf("Expected last write to win, got epoch %d", f.Header.Checkpoint.Epoch)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.nnet"), DefaultReaderOptions()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got: %v", err)
	}
}
