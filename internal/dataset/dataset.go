// Package dataset loads labelled image data (MNIST IDX and CSV files) and
// builds synthetic digit sets for tests and demos.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// NumClasses is the number of digit classes.
const NumClasses = 10

// ErrInvalidIDX is returned for IDX streams with a wrong magic number or size.
var ErrInvalidIDX = errors.New("invalid IDX data")

// Set holds images normalized to [0, 1] with their labels.
type Set struct {
	Images [][]float64 // [num_samples][rows*cols]
	Labels []int       // [num_samples]
	Rows   int
	Cols   int
}

// Len returns the number of samples.
func (s *Set) Len() int {
	return len(s.Images)
}

// Targets returns one-hot encoded labels over NumClasses classes.
func (s *Set) Targets() [][]float64 {
	targets := make([][]float64, len(s.Labels))
	for i, label := range s.Labels {
		targets[i] = OneHot(label, NumClasses)
	}
	return targets
}

// Split returns the first (1-ratio) of the samples and the rest.
func (s *Set) Split(validationRatio float64) (train, validation *Set) {
	at := int(float64(s.Len()) * (1 - validationRatio))
	return &Set{Images: s.Images[:at], Labels: s.Labels[:at], Rows: s.Rows, Cols: s.Cols},
		&Set{Images: s.Images[at:], Labels: s.Labels[at:], Rows: s.Rows, Cols: s.Cols}
}

// Normalize maps 0-255 pixels to [0, 1].
func Normalize(pixels []byte) []float64 {
	out := make([]float64, len(pixels))
	for i, p := range pixels {
		out[i] = float64(p) / 255.0
	}
	return out
}

// OneHot returns a vector of n zeros with a one at label.
// Labels outside [0, n) produce an all-zero vector.
func OneHot(label, n int) []float64 {
	v := make([]float64, n)
	if label >= 0 && label < n {
		v[label] = 1
	}
	return v
}

// Load reads the MNIST IDX files from dir.
//
// Expected files in dir:
//   - train-images-idx3-ubyte (or t10k-images-idx3-ubyte for test)
//   - train-labels-idx1-ubyte (or t10k-labels-idx1-ubyte for test)
//
// maxSamples caps the number of samples (0 = load all).
func Load(dir string, train bool, maxSamples int) (*Set, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}

	var (
		raw        [][]byte
		rows, cols int
		labels     []byte
	)
	err := readFile(filepath.Join(dir, prefix+"-images-idx3-ubyte"), func(f *bufio.Reader) (err error) {
		raw, rows, cols, err = ReadIDXImages(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	err = readFile(filepath.Join(dir, prefix+"-labels-idx1-ubyte"), func(f *bufio.Reader) (err error) {
		labels, err = ReadIDXLabels(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	if len(raw) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(raw), len(labels))
	}

	n := len(raw)
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	set := &Set{Images: make([][]float64, n), Labels: make([]int, n), Rows: rows, Cols: cols}
	for i := 0; i < n; i++ {
		set.Images[i] = Normalize(raw[i])
		set.Labels[i] = int(labels[i])
	}
	return set, nil
}

// LoadCSV reads a Kaggle-style MNIST CSV file of 28x28 images.
//
// CSV Format:
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//
// maxSamples caps the number of samples (0 = load all).
func LoadCSV(path string, maxSamples int) (*Set, error) {
	const rows, cols = 28, 28

	var records [][]string
	err := readFile(path, func(f *bufio.Reader) (err error) {
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1 // Header width may differ from the rows
		records, err = r.ReadAll()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	records = records[1:]
	if maxSamples > 0 && len(records) > maxSamples {
		records = records[:maxSamples]
	}

	set := &Set{Images: make([][]float64, len(records)), Labels: make([]int, len(records)), Rows: rows, Cols: cols}
	for i, record := range records {
		if len(record) != 1+rows*cols {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", i+1, len(record), 1+rows*cols)
		}
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", i+1, err)
		}
		if label < 0 || label >= NumClasses {
			return nil, fmt.Errorf("label out of range [0, %d) at row %d: %d", NumClasses, i+1, label)
		}
		pixels := make([]byte, rows*cols)
		for j := range pixels {
			p, err := strconv.Atoi(record[j+1])
			if err != nil || p < 0 || p > 255 {
				return nil, fmt.Errorf("invalid pixel at row %d, column %d: %q", i+1, j+1, record[j+1])
			}
			pixels[j] = byte(p)
		}
		set.Images[i] = Normalize(pixels)
		set.Labels[i] = label
	}
	return set, nil
}

func readFile(path string, read func(*bufio.Reader) error) error {
	//nolint:gosec // G304: dataset paths come from the caller
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return read(bufio.NewReader(f))
}
