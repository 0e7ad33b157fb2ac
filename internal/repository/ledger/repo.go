// Package ledger persists the uploaded-files ledger as uploaded_files.json.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

// FileName is the ledger file inside the data directory.
const FileName = "uploaded_files.json"

// Repo is a deduplicating append-only list of upload records.
type Repo struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// New creates a ledger stored in dir.
func New(dir string, logger *zap.Logger) *Repo {
	return &Repo{path: filepath.Join(dir, FileName), logger: logger}
}

// Save appends the records whose (name, size, lastModified) key is not yet
// present and rewrites the file. Failures are reported in the result, with
// Total counting the records already stored.
func (r *Repo) Save(records []domain.UploadRecord) domain.LedgerSaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("Unreadable ledger, starting empty", zap.String("path", r.path), zap.Error(err))
		existing = nil
	}

	seen := make(map[string]struct{}, len(existing)+len(records))
	for _, rec := range existing {
		seen[rec.Key()] = struct{}{}
	}

	all := existing
	var res domain.LedgerSaveResult
	for _, rec := range records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		all = append(all, rec)
		res.Saved++
	}
	res.Total = len(all)

	if err := r.write(all); err != nil {
		r.logger.Error("Failed to save ledger", zap.String("path", r.path), zap.Error(err))
		return domain.LedgerSaveResult{Total: len(existing), Err: err}
	}
	return res
}

// Load returns every record. A missing or unreadable file yields an empty list.
func (r *Repo) Load() []domain.UploadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Failed to load ledger", zap.String("path", r.path), zap.Error(err))
		}
		return []domain.UploadRecord{}
	}
	if recs == nil {
		return []domain.UploadRecord{}
	}
	return recs
}

func (r *Repo) read() ([]domain.UploadRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err //nolint:wrapcheck // fs.ErrNotExist is checked by callers
	}
	var recs []domain.UploadRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileName, err)
	}
	return recs, nil
}

func (r *Repo) write(recs []domain.UploadRecord) error {
	if recs == nil {
		recs = []domain.UploadRecord{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}
	return nil
}
