// Package tensor defines the values that flow between network stages.
package tensor

// Kind tags the variant held by a Value.
type Kind int

const (
	// Uninitialized is the zero Value, before any forward pass produced data.
	Uninitialized Kind = iota
	// Dense is a flat feature vector.
	Dense
	// MultiChannel is a list of flattened row-major 2D maps.
	MultiChannel
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case Dense:
		return "dense"
	case MultiChannel:
		return "multi-channel"
	default:
		return "uninitialized"
	}
}

// Value is the data flowing between network stages.
//
// The zero Value is Uninitialized. A Value does not copy the slices it is
// built from; stages that need to keep an input clone it first.
type Value struct {
	kind     Kind
	data     []float64
	channels [][]float64
	height   int
	width    int
}

// NewDense wraps a feature vector.
func NewDense(data []float64) Value {
	return Value{kind: Dense, data: data}
}

// NewMultiChannel wraps channel maps of height x width scalars each.
func NewMultiChannel(channels [][]float64, height, width int) Value {
	return Value{kind: MultiChannel, channels: channels, height: height, width: width}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// Data returns the vector of a Dense value, nil otherwise.
func (v Value) Data() []float64 {
	return v.data
}

// Channels returns the maps of a MultiChannel value, nil otherwise.
func (v Value) Channels() [][]float64 {
	return v.channels
}

// Height returns the map height of a MultiChannel value.
func (v Value) Height() int {
	return v.height
}

// Width returns the map width of a MultiChannel value.
func (v Value) Width() int {
	return v.width
}

// Len returns the number of scalars held by the value.
func (v Value) Len() int {
	switch v.kind {
	case Dense:
		return len(v.data)
	case MultiChannel:
		n := 0
		for _, ch := range v.channels {
			n += len(ch)
		}
		return n
	default:
		return 0
	}
}

// Shape returns (n) for Dense and (channels, height, width) for MultiChannel.
func (v Value) Shape() Shape {
	switch v.kind {
	case Dense:
		return Shape{len(v.data)}
	case MultiChannel:
		return Shape{len(v.channels), v.height, v.width}
	default:
		return nil
	}
}

// Flatten returns the scalars in channel-major order.
// Dense values return their backing slice; MultiChannel values are copied.
func (v Value) Flatten() []float64 {
	switch v.kind {
	case Dense:
		return v.data
	case MultiChannel:
		out := make([]float64, 0, v.Len())
		for _, ch := range v.channels {
			out = append(out, ch...)
		}
		return out
	default:
		return nil
	}
}

// Split cuts a flat vector into n equal consecutive channels.
// It returns false when len(data) is not divisible by n.
func Split(data []float64, n int) ([][]float64, bool) {
	if n <= 0 || len(data)%n != 0 {
		return nil, false
	}
	size := len(data) / n
	out := make([][]float64, n)
	for c := range out {
		out[c] = data[c*size : (c+1)*size]
	}
	return out, true
}

// Map applies f to every scalar and returns a value of the same variant and shape.
func (v Value) Map(f func(float64) float64) Value {
	switch v.kind {
	case Dense:
		return NewDense(mapSlice(v.data, f))
	case MultiChannel:
		channels := make([][]float64, len(v.channels))
		for c, ch := range v.channels {
			channels[c] = mapSlice(ch, f)
		}
		return NewMultiChannel(channels, v.height, v.width)
	default:
		return v
	}
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	return v.Map(func(x float64) float64 { return x })
}

func mapSlice(in []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = f(x)
	}
	return out
}
