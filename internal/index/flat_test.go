package index

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

func testVectors() [][]float32 {
	return [][]float32{
		{0, 0},
		{1, 0},
		{0, 3},
		{1, 0},
	}
}

func TestNewFlat_InvalidDim(t *testing.T) {
	if _, err := NewFlat(0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestAdd_DimMismatch(t *testing.T) {
	f, _ := NewFlat(2)
	err := f.Add([]float32{1, 2}, []float32{1})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("expected no vectors added, got %d", f.Len())
	}
}

func TestSearch_AscendingDistance(t *testing.T) {
	f, err := Build(testVectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dist, pos, err := f.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPos := []int{1, 3, 0}
	wantDist := []float64{0, 0, 1}
	for i := range wantPos {
		if pos[i] != wantPos[i] {
			t.Errorf("pos[%d] = %d, want %d", i, pos[i], wantPos[i])
		}
		if dist[i] != wantDist[i] {
			t.Errorf("dist[%d] = %f, want %f", i, dist[i], wantDist[i])
		}
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	f, _ := Build(testVectors())
	_, pos, err := f.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pos) != 4 {
		t.Fatalf("expected 4 results, got %d", len(pos))
	}
	if pos[len(pos)-1] != 2 {
		t.Errorf("expected farthest vector last, got %v", pos)
	}
}

func TestSearch_QueryDimMismatch(t *testing.T) {
	f, _ := Build(testVectors())
	if _, _, err := f.Search([]float32{1, 2, 3}, 1); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	f, _ := Build(testVectors())

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, buffer has %d", n, buf.Len())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dim() != 2 || got.Len() != 4 {
		t.Fatalf("unexpected shape dim=%d len=%d", got.Dim(), got.Len())
	}
	_, pos, _ := got.Search([]float32{0, 3}, 1)
	if pos[0] != 2 {
		t.Errorf("expected position 2, got %d", pos[0])
	}
}

func TestRead_Corrupt(t *testing.T) {
	tests := map[string][]byte{
		"short":     []byte("PRL"),
		"bad magic": append([]byte("NOPE"), make([]byte, 16)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(data)); !errors.Is(err, domain.ErrCorruptIndex) {
				t.Fatalf("expected ErrCorruptIndex, got %v", err)
			}
		})
	}

	f, _ := Build(testVectors())
	var buf bytes.Buffer
	_, _ = f.WriteTo(&buf)
	truncated := buf.Bytes()[:buf.Len()-3]
	if _, err := Read(bytes.NewReader(truncated)); !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex for truncated payload, got %v", err)
	}
}
