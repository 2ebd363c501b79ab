package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum JSON header size
	MaxTensorCount   = 10_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 256              // Maximum tensor name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the offset overlap scan.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains '..'"}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains path separator or null byte"}
	}
	return nil
}

// ValidateTensorMeta checks that a table entry describes a float64 array
// whose byte size matches its shape.
func ValidateTensorMeta(t TensorMeta) error {
	if t.DType != DTypeFloat64 {
		return &ValidationError{
			Type:    "unsupported_dtype",
			Tensor:  t.Name,
			Details: fmt.Sprintf("got %q, expected %q", t.DType, DTypeFloat64),
		}
	}
	if len(t.Shape) == 0 {
		return &ValidationError{Type: "shape_mismatch", Tensor: t.Name, Details: "empty shape"}
	}
	for i, d := range t.Shape {
		if d <= 0 {
			return &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("dimension %d is %d (must be > 0)", i, d),
			}
		}
	}
	if want := t.NumElements() * float64Size; t.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, table says %d", t.Shape, want, t.Size),
		}
	}
	return nil
}

// ValidateHeader performs header validation at the requested level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	seen := make(map[string]struct{}, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "tensor listed twice"}
		}
		seen[t.Name] = struct{}{}
		if err := ValidateTensorMeta(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		if err := ValidateTensorOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}

	return nil
}
