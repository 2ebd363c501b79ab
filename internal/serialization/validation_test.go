package serialization

import (
	"errors"
	"strings"
	"testing"
)

// TestValidateTensorOffsets_NoOverlap verifies that valid tensors pass validation.
func TestValidateTensorOffsets_NoOverlap(t *testing.T) {
	tensors := []TensorMeta{
		{Name: "stages.0.weight", Offset: 0, Size: 64},
		{Name: "stages.0.bias", Offset: 64, Size: 32},
		{Name: "stages.1.weight", Offset: 96, Size: 32},
	}

	if err := ValidateTensorOffsets(tensors, 128); err != nil {
		t.Errorf("Expected no error for valid tensors, got: %v", err)
	}
}

// TestValidateTensorOffsets_Invalid detects overlapping, negative and out-of-bounds regions.
func TestValidateTensorOffsets_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "partial overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 16},
				{Name: "b", Offset: 8, Size: 16},
			},
			dataSize: 32,
			wantType: "offset_overlap",
		},
		{
			name: "overlap independent of table order",
			tensors: []TensorMeta{
				{Name: "b", Offset: 8, Size: 16},
				{Name: "a", Offset: 0, Size: 16},
			},
			dataSize: 32,
			wantType: "offset_overlap",
		},
		{
			name:     "beyond data section",
			tensors:  []TensorMeta{{Name: "a", Offset: 8, Size: 32}},
			dataSize: 32,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -8, Size: 8}},
			dataSize: 32,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got: %v", err)
			}
			if verr.Type != tt.wantType {
				t.Errorf("Expected type %q, got %q", tt.wantType, verr.Type)
			}
		})
	}
}

// TestValidateTensorName covers accepted and rejected names.
func TestValidateTensorName(t *testing.T) {
	valid := []string{"stages.0.weight", "stages.12.kernel", "bias"}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("Expected %q to be valid, got: %v", name, err)
		}
	}

	invalid := []string{"", "../etc/passwd", "stages/0", "a\\b", "a\x00b", strings.Repeat("x", MaxTensorNameLen+1)}
	for _, name := range invalid {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

// TestValidateTensorMeta checks dtype and shape/size agreement.
func TestValidateTensorMeta(t *testing.T) {
	tests := []struct {
		name     string
		meta     TensorMeta
		wantType string
	}{
		{"valid", TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{2, 3}, Size: 48}, ""},
		{"float32", TensorMeta{Name: "w", DType: "float32", Shape: []int{2, 3}, Size: 24}, "unsupported_dtype"},
		{"zero dim", TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{2, 0}, Size: 0}, "shape_mismatch"},
		{"no shape", TensorMeta{Name: "w", DType: DTypeFloat64, Size: 8}, "shape_mismatch"},
		{"size mismatch", TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{2, 3}, Size: 40}, "size_mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorMeta(tt.meta)
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Type != tt.wantType {
				t.Errorf("Expected %s ValidationError, got: %v", tt.wantType, err)
			}
		})
	}
}

// TestValidateHeader_Levels verifies which checks each level runs.
func TestValidateHeader_Levels(t *testing.T) {
	overlapping := &Header{Tensors: []TensorMeta{
		{Name: "a", DType: DTypeFloat64, Shape: []int{2}, Offset: 0, Size: 16},
		{Name: "b", DType: DTypeFloat64, Shape: []int{2}, Offset: 8, Size: 16},
	}}

	if err := ValidateHeader(overlapping, 32, ValidationStrict); err == nil {
		t.Error("Strict validation should detect overlap")
	}
	if err := ValidateHeader(overlapping, 32, ValidationNormal); err != nil {
		t.Errorf("Normal validation should skip offset checks, got: %v", err)
	}

	duplicate := &Header{Tensors: []TensorMeta{
		{Name: "a", DType: DTypeFloat64, Shape: []int{1}, Offset: 0, Size: 8},
		{Name: "a", DType: DTypeFloat64, Shape: []int{1}, Offset: 8, Size: 8},
	}}
	if err := ValidateHeader(duplicate, 16, ValidationNormal); err == nil {
		t.Error("Normal validation should reject duplicate names")
	}
	if err := ValidateHeader(duplicate, 16, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip all checks, got: %v", err)
	}
}

// TestValidationError_ErrorMessages verifies message formatting.
func TestValidationError_ErrorMessages(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Type: "too_many_tensors", Details: "got 2, max 1"}, "too_many_tensors: got 2, max 1"},
		{&ValidationError{Type: "invalid_name", Tensor: "a/b", Details: "bad"}, `invalid_name: tensor "a/b": bad`},
		{&ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "x"}, `offset_overlap: tensors "a" and "b": x`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
