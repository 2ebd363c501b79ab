package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051 // 0x00000803
	idxLabelsMagic = 2049 // 0x00000801

	maxImagePixels = 1 << 20 // Largest accepted rows*cols
	idxPrealloc    = 1 << 12 // Images preallocated before any are read
)

// ReadIDXImages reads an IDX image stream.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// It returns the raw pixels and the image height and width.
func ReadIDXImages(r io.Reader) (images [][]byte, rows, cols int, err error) {
	if err := readMagic(r, idxImagesMagic); err != nil {
		return nil, 0, 0, err
	}
	var sizes [3]uint32
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: short image header: %w", ErrInvalidIDX, err)
	}

	count, rows, cols := int(sizes[0]), int(sizes[1]), int(sizes[2])
	if rows == 0 || cols == 0 || rows*cols > maxImagePixels {
		return nil, 0, 0, fmt.Errorf("%w: image size %dx%d", ErrInvalidIDX, rows, cols)
	}

	// Grow as images arrive; count comes from an untrusted header.
	images = make([][]byte, 0, min(count, idxPrealloc))
	for i := 0; i < count; i++ {
		img := make([]byte, rows*cols)
		if _, err := io.ReadFull(r, img); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, 0, 0, fmt.Errorf("failed to read image %d of %d: %w", i, count, err)
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

// ReadIDXLabels reads an IDX label stream.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	if err := readMagic(r, idxLabelsMagic); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: short label header: %w", ErrInvalidIDX, err)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(count)))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) != int(count) {
		return nil, fmt.Errorf("failed to read labels: got %d of %d: %w", len(labels), count, io.ErrUnexpectedEOF)
	}
	return labels, nil
}

// readMagic reads the 4-byte magic number and checks it against want.
func readMagic(r io.Reader, want uint32) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return fmt.Errorf("%w: missing magic number: %w", ErrInvalidIDX, err)
	}
	if magic != want {
		return fmt.Errorf("%w: got magic %d, want %d", ErrInvalidIDX, magic, want)
	}
	return nil
}

// WriteIDXImages writes images of rows x cols pixels as an IDX stream.
func WriteIDXImages(w io.Writer, images [][]byte, rows, cols int) error {
	header := [4]uint32{idxImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)} //nolint:gosec // G115: IDX sizes are 32-bit
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return fmt.Errorf("failed to write image header: %w", err)
	}
	for i, img := range images {
		if len(img) != rows*cols {
			return fmt.Errorf("image %d: got %d pixels, want %d", i, len(img), rows*cols)
		}
		if _, err := w.Write(img); err != nil {
			return fmt.Errorf("failed to write image %d: %w", i, err)
		}
	}
	return nil
}

// WriteIDXLabels writes labels as an IDX stream.
func WriteIDXLabels(w io.Writer, labels []byte) error {
	header := [2]uint32{idxLabelsMagic, uint32(len(labels))} //nolint:gosec // G115: IDX sizes are 32-bit
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return fmt.Errorf("failed to write label header: %w", err)
	}
	if _, err := w.Write(labels); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return nil
}
