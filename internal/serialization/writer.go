package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Version is the nnet release recorded in written headers.
const Version = "0.1.0"

// Write encodes the header and tensors in .nnet format.
//
// Tensors are stored in the given order; the tensor table, format version,
// creation time and flags of header are filled in by Write.
func Write(w io.Writer, header Header, tensors []Tensor) error {
	header.FormatVersion = FormatVersion
	if header.Version == "" {
		header.Version = Version
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Calculate tensor offsets
	var dataSize int64
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	for _, t := range tensors {
		size := int64(len(t.Data)) * float64Size
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.Name,
			DType:  DTypeFloat64,
			Shape:  append([]int(nil), t.Shape...),
			Offset: dataSize,
			Size:   size,
		})
		dataSize += size
	}
	if err := ValidateHeader(&header, dataSize, ValidationStrict); err != nil {
		return fmt.Errorf("invalid tensor table: %w", err)
	}

	data := make([]byte, 0, dataSize)
	for _, t := range tensors {
		for _, v := range t.Data {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	fixedHeader := make([]byte, FixedHeaderSize)

	// 0x00-0x03: Magic bytes
	copy(fixedHeader[0:4], MagicBytes)

	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(fixedHeader[4:8], FormatVersion)

	// 0x08-0x0B: Flags
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F: Reserved

	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))

	// 0x18-0x1F: Data size
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(dataSize))

	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedOffset(int64(len(headerJSON))) - int64(FixedHeaderSize+len(headerJSON))

	sections := []struct {
		name string
		data []byte
	}{
		{"fixed header", fixedHeader},
		{"header", headerJSON},
		{"padding", make([]byte, padding)},
		{"tensor data", data},
	}
	for _, s := range sections {
		if _, err := w.Write(s.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
	}
	return nil
}

// WriteFile writes a .nnet file atomically: the content goes to a temporary
// file in the target directory which is then renamed over path.
func WriteFile(path string, header Header, tensors []Tensor) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()           // Best effort close on error
			_ = os.Remove(tmp.Name()) // Best effort cleanup
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = Write(bw, header, tensors); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename to %s: %w", path, err)
	}
	return nil
}
