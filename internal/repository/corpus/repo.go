// Package corpus persists the corpus sequences and the vector index as flat files.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/index"
)

// File names inside the data directory.
const (
	IndexFile     = "vector_index.bin"
	DocumentsFile = "documents.json"
)

// Repo reads and writes documents.json and vector_index.bin in one directory.
// Writes are whole-file rewrites without atomic rename.
type Repo struct {
	dir string
}

// New creates a corpus repository rooted at dir.
func New(dir string) *Repo {
	return &Repo{dir: dir}
}

// Save writes the index followed by the corpus sequences. An empty corpus
// writes empty sequences and removes any stale index file.
func (r *Repo) Save(c domain.Corpus, idx *index.Flat) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}
	if idx.Len() != c.Len() {
		return fmt.Errorf("index has %d vectors for %d chunks: %w", idx.Len(), c.Len(), domain.ErrCorpusMisaligned)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if c.Len() == 0 {
		if err := os.Remove(r.path(IndexFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale index: %w", err)
		}
	} else if err := r.writeIndex(idx); err != nil {
		return err
	}

	data, err := json.Marshal(toFile(c))
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := os.WriteFile(r.path(DocumentsFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", DocumentsFile, err)
	}
	return nil
}

// Load reads both files. When either file is missing it returns an empty
// corpus and a nil index. Any inconsistency is an error; callers reset to empty.
func (r *Repo) Load() (domain.Corpus, *index.Flat, error) {
	data, err := os.ReadFile(r.path(DocumentsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Corpus{}, nil, nil
	}
	if err != nil {
		return domain.Corpus{}, nil, fmt.Errorf("read %s: %w", DocumentsFile, err)
	}

	var f documentsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.Corpus{}, nil, fmt.Errorf("decode %s: %w", DocumentsFile, err)
	}
	c := fromFile(f)
	if err := c.Validate(); err != nil {
		return domain.Corpus{}, nil, fmt.Errorf("load corpus: %w", err)
	}

	idx, err := r.readIndex()
	if errors.Is(err, fs.ErrNotExist) {
		if c.Len() == 0 {
			return domain.Corpus{}, nil, nil
		}
		return domain.Corpus{}, nil, fmt.Errorf("%s missing for %d chunks: %w", IndexFile, c.Len(), domain.ErrCorpusMisaligned)
	}
	if err != nil {
		return domain.Corpus{}, nil, err
	}
	if idx.Len() != c.Len() {
		return domain.Corpus{}, nil, fmt.Errorf("index has %d vectors for %d chunks: %w",
			idx.Len(), c.Len(), domain.ErrCorpusMisaligned)
	}
	return c, idx, nil
}

func (r *Repo) writeIndex(idx *index.Flat) (err error) {
	f, err := os.Create(r.path(IndexFile))
	if err != nil {
		return fmt.Errorf("create %s: %w", IndexFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", IndexFile, cerr)
		}
	}()

	if _, err := idx.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", IndexFile, err)
	}
	return nil
}

func (r *Repo) readIndex() (*index.Flat, error) {
	f, err := os.Open(r.path(IndexFile))
	if err != nil {
		return nil, err //nolint:wrapcheck // fs.ErrNotExist is checked by the caller
	}
	defer f.Close()

	idx, err := index.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IndexFile, err)
	}
	return idx, nil
}

func (r *Repo) path(name string) string {
	return filepath.Join(r.dir, name)
}
