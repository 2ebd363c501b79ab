package nn

import (
	"github.com/born-ml/nnet/internal/tensor"
)

// Param is a named view over a trainable parameter array.
//
// Data aliases the layer's storage in row-major order, so merging and
// loading write through it directly.
//
// Example:
//
//	for _, p := range layer.Params() {
//	    fmt.Println(p.Name, p.Shape, len(p.Data))
//	}
type Param struct {
	Name  string       // Parameter name (e.g., "weight", "kernel", "bias")
	Shape tensor.Shape // Logical shape of Data
	Data  []float64    // Backing storage
}

// NumElements returns len(p.Data).
func (p Param) NumElements() int {
	return len(p.Data)
}
