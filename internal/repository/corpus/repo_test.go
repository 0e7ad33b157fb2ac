package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/index"
)

func sampleCorpus(t *testing.T) (domain.Corpus, *index.Flat) {
	t.Helper()
	var c domain.Corpus
	c.Append("a.pdf", filepath.Join("uploads", "a.pdf"), []string{"alpha one", "alpha two"})
	c.Append("b.pdf", filepath.Join("uploads", "b.pdf"), []string{"beta"})

	idx, err := index.Build([][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return c, idx
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	c, idx := sampleCorpus(t)

	if err := repo.Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, gotIdx, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 3 || gotIdx.Len() != 3 {
		t.Fatalf("expected 3 chunks and vectors, got %d and %d", got.Len(), gotIdx.Len())
	}
	for i := range c.Chunks {
		if got.Chunks[i] != c.Chunks[i] || got.Documents[i] != c.Documents[i] || got.Paths[i] != c.Paths[i] {
			t.Errorf("position %d: got (%q,%q,%q)", i, got.Chunks[i], got.Documents[i], got.Paths[i])
		}
	}

	dist, pos, err := gotIdx.Search([]float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if pos[0] != 1 || dist[0] != 0 {
		t.Errorf("expected exact hit at position 1, got %v %v", pos, dist)
	}
}

func TestLoad_MissingFilesIsEmpty(t *testing.T) {
	c, idx, err := New(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 || idx != nil {
		t.Errorf("expected empty state, got %d chunks, idx %v", c.Len(), idx)
	}
}

func TestLoad_DocumentsFileLayout(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	c, idx := sampleCorpus(t)
	if err := repo.Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DocumentsFile))
	if err != nil {
		t.Fatalf("read documents file: %v", err)
	}
	for _, key := range []string{`"documents"`, `"document_paths"`, `"chunks"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("documents.json missing key %s: %s", key, data)
		}
	}
}

func TestLoad_NormalizesBackslashPaths(t *testing.T) {
	dir := t.TempDir()
	idx, _ := index.Build([][]float32{{1}})
	if err := New(dir).Save(domain.Corpus{Chunks: []string{"x"}, Documents: []string{"a.pdf"}, Paths: []string{"x"}}, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw := `{"documents":["a.pdf"],"document_paths":["uploads\\a.pdf"],"chunks":["x"]}`
	if err := os.WriteFile(filepath.Join(dir, DocumentsFile), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, _, err := New(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Paths[0] != filepath.Join("uploads", "a.pdf") {
		t.Errorf("expected normalized path, got %q", c.Paths[0])
	}
}

func TestLoad_MisalignedIsError(t *testing.T) {
	dir := t.TempDir()
	raw := `{"documents":["a.pdf","a.pdf"],"document_paths":["a.pdf"],"chunks":["x","y"]}`
	if err := os.WriteFile(filepath.Join(dir, DocumentsFile), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := New(dir).Load()
	if !errors.Is(err, domain.ErrCorpusMisaligned) {
		t.Fatalf("expected ErrCorpusMisaligned, got %v", err)
	}
}

func TestLoad_IndexCountMismatchIsError(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	c, idx := sampleCorpus(t)
	if err := repo.Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	small, _ := index.Build([][]float32{{1, 0}})
	f, err := os.Create(filepath.Join(dir, IndexFile))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := small.WriteTo(f); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	if _, _, err := repo.Load(); !errors.Is(err, domain.ErrCorpusMisaligned) {
		t.Fatalf("expected ErrCorpusMisaligned, got %v", err)
	}
}

func TestLoad_CorruptIndexIsError(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	c, idx := sampleCorpus(t)
	if err := repo.Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := repo.Load(); !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestSave_EmptyCorpusRemovesIndex(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir)
	c, idx := sampleCorpus(t)
	if err := repo.Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := repo.Save(domain.Corpus{}, nil); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexFile)); !os.IsNotExist(err) {
		t.Errorf("expected index file to be removed, stat err = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DocumentsFile))
	if err != nil {
		t.Fatalf("read documents: %v", err)
	}
	if string(data) != `{"documents":[],"document_paths":[],"chunks":[]}` {
		t.Errorf("unexpected empty documents file: %s", data)
	}

	got, gotIdx, err := repo.Load()
	if err != nil || got.Len() != 0 || gotIdx != nil {
		t.Errorf("expected empty load, got %d chunks, idx %v, err %v", got.Len(), gotIdx, err)
	}
}

func TestSave_RejectsMismatchedIndex(t *testing.T) {
	c, _ := sampleCorpus(t)
	small, _ := index.Build([][]float32{{1, 0}})

	if err := New(t.TempDir()).Save(c, small); !errors.Is(err, domain.ErrCorpusMisaligned) {
		t.Fatalf("expected ErrCorpusMisaligned, got %v", err)
	}
}

func TestSave_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	c, idx := sampleCorpus(t)

	if err := New(dir).Save(c, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexFile)); err != nil {
		t.Errorf("expected index file: %v", err)
	}
}
