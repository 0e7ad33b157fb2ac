// Package index implements an exact nearest-neighbour index over dense
// float32 vectors using squared Euclidean distance.
package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

var magic = [4]byte{'P', 'R', 'L', '2'}

const formatVersion uint32 = 1

// Flat is a brute-force L2 index. Vectors are stored contiguously in insertion
// order; the position of a vector is its insertion ordinal. There is no delete.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Build creates an index sized to the first vector and adds all vectors.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to index")
	}
	f, err := NewFlat(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := f.Add(vectors...); err != nil {
		return nil, err
	}
	return f, nil
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	if f == nil {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends vectors. Nothing is added if any vector has the wrong dimension.
func (f *Flat) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector [%d]: got %d, want %d: %w", i, len(v), f.dim, domain.ErrVectorDimMismatch)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Search returns up to k positions closest to q, ascending by squared L2
// distance. Ties keep the lower position first.
func (f *Flat) Search(q []float32, k int) (distances []float64, positions []int, err error) {
	if len(q) != f.dim {
		return nil, nil, fmt.Errorf("query: got %d, want %d: %w", len(q), f.dim, domain.ErrVectorDimMismatch)
	}
	n := f.Len()
	if k <= 0 || n == 0 {
		return nil, nil, nil
	}

	all := make([]float64, n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		all[i] = squaredL2(q, f.data[i*f.dim:(i+1)*f.dim])
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return all[order[a]] < all[order[b]] })

	k = min(k, n)
	distances = make([]float64, k)
	positions = order[:k:k]
	for i, p := range positions {
		distances[i] = all[p]
	}
	return distances, positions, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// WriteTo serializes the index: magic, version, dimension, count, then the
// little-endian float32 payload.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	header := make([]byte, 0, 20)
	header = append(header, magic[:]...)
	header = binary.LittleEndian.AppendUint32(header, formatVersion)
	header = binary.LittleEndian.AppendUint32(header, uint32(f.dim))
	header = binary.LittleEndian.AppendUint64(header, uint64(f.Len()))
	if _, err := bw.Write(header); err != nil {
		return 0, fmt.Errorf("write index header: %w", err)
	}

	buf := make([]byte, 4)
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return 0, fmt.Errorf("write index data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush index: %w", err)
	}
	return int64(len(header) + 4*len(f.data)), nil
}

// Read deserializes an index written by WriteTo.
func Read(r io.Reader) (*Flat, error) {
	br := bufio.NewReader(r)
	header := make([]byte, 20)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("read index header: %v: %w", err, domain.ErrCorruptIndex)
	}
	if [4]byte(header[:4]) != magic {
		return nil, fmt.Errorf("bad magic %q: %w", header[:4], domain.ErrCorruptIndex)
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != formatVersion {
		return nil, fmt.Errorf("unsupported index version %d: %w", v, domain.ErrCorruptIndex)
	}
	dim := int(binary.LittleEndian.Uint32(header[8:12]))
	count := binary.LittleEndian.Uint64(header[12:20])

	f, err := NewFlat(dim)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrCorruptIndex)
	}
	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read index data: %w", err)
	}
	if uint64(len(payload)) != count*uint64(dim)*4 {
		return nil, fmt.Errorf("payload %d bytes for %d vectors of %d: %w",
			len(payload), count, dim, domain.ErrCorruptIndex)
	}
	f.data = make([]float32, len(payload)/4)
	for i := range f.data {
		f.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return f, nil
}
