package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// MaxDataSize bounds the data section a reader will allocate.
const MaxDataSize = 4 << 30 // 4GB

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// DefaultReaderOptions returns strict validation with checksum verification.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{ValidationLevel: ValidationStrict}
}

// File is a decoded .nnet file.
type File struct {
	Header   Header
	Flags    uint32
	Checksum [ChecksumSize]byte
	Tensors  []Tensor // In tensor table order
}

// Tensor returns the tensor with the given name.
func (f *File) Tensor(name string) (Tensor, bool) {
	for _, t := range f.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return Tensor{}, false
}

// ReadFile opens and decodes a .nnet file.
func ReadFile(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Read(bufio.NewReader(file), opts)
}

// Read decodes a .nnet stream.
//
//nolint:gocyclo,cyclop // Sequential format parsing
func Read(r io.Reader, opts ReaderOptions) (*File, error) {
	fixedHeader := make([]byte, FixedHeaderSize)
	if err := readFull(r, fixedHeader, "fixed header"); err != nil {
		return nil, err
	}

	// 0x00-0x03: magic
	if magic := string(fixedHeader[0:4]); magic != MagicBytes {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, magic, MagicBytes)
	}

	// 0x04-0x07: version
	if version := binary.LittleEndian.Uint32(fixedHeader[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	f := &File{Flags: binary.LittleEndian.Uint32(fixedHeader[8:12])}
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	copy(f.Checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if dataSize > MaxDataSize {
		return nil, &ValidationError{
			Type:    "data_too_large",
			Details: fmt.Sprintf("data size %d > max %d", dataSize, int64(MaxDataSize)),
		}
	}

	headerBytes := make([]byte, headerSize)
	if err := readFull(r, headerBytes, "header"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(headerBytes, &f.Header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignedOffset(int64(headerSize)) - int64(FixedHeaderSize) - int64(headerSize)
	if err := readFull(r, make([]byte, padding), "padding"); err != nil {
		return nil, err
	}

	data := make([]byte, dataSize)
	if err := readFull(r, data, "tensor data"); err != nil {
		return nil, err
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), f.Checksum); err != nil {
			return nil, err
		}
	}

	//nolint:gosec // G115: dataSize is bounded by MaxDataSize
	if err := ValidateHeader(&f.Header, int64(dataSize), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	f.Tensors = make([]Tensor, 0, len(f.Header.Tensors))
	for _, meta := range f.Header.Tensors {
		t, err := decodeTensor(meta, data)
		if err != nil {
			return nil, err
		}
		f.Tensors = append(f.Tensors, t)
	}
	return f, nil
}

// decodeTensor converts one table entry of the data section to float64s.
// Bounds are checked here regardless of the validation level.
func decodeTensor(meta TensorMeta, data []byte) (Tensor, error) {
	if meta.Offset < 0 || meta.Size < 0 || meta.Size%float64Size != 0 || meta.Offset+meta.Size > int64(len(data)) {
		return Tensor{}, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("offset=%d, size=%d, data_size=%d", meta.Offset, meta.Size, len(data)),
		}
	}

	raw := data[meta.Offset : meta.Offset+meta.Size]
	values := make([]float64, len(raw)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
	}
	return Tensor{Name: meta.Name, Shape: append([]int(nil), meta.Shape...), Data: values}, nil
}

// readFull reads len(buf) bytes, reporting a short read as ErrTruncated.
func readFull(r io.Reader, buf []byte, section string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("failed to read %s: %w", section, ErrTruncated)
		}
		return fmt.Errorf("failed to read %s: %w", section, err)
	}
	return nil
}
