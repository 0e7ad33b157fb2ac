// Package corpus owns the in-memory corpus and vector index: ingestion,
// removal and similarity retrieval.
package corpus

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/index"
	"github.com/kailas-cloud/pdfrag/internal/metrics"
)

// DefaultTopK is the number of passages retrieved when none is requested.
const DefaultTopK = 5

// Service is the document processor. Ingestion and removal take the write
// lock for their whole duration, retrieval takes the read lock. A failed
// mutation leaves the previous corpus and index in place.
type Service struct {
	mu     sync.RWMutex
	corpus domain.Corpus
	idx    *index.Flat

	store         Store
	extractor     Extractor
	splitter      Splitter
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	topK          int
	logger        *zap.Logger
}

// New creates the processor and loads persisted state. Unreadable or
// inconsistent state is logged and replaced by an empty corpus.
func New(
	store Store,
	extractor Extractor,
	splitter Splitter,
	docEmbedder, queryEmbedder domain.Embedder,
	logger *zap.Logger,
) *Service {
	s := &Service{
		store:         store,
		extractor:     extractor,
		splitter:      splitter,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		topK:          DefaultTopK,
		logger:        logger,
	}

	c, idx, err := store.Load()
	if err != nil {
		logger.Warn("Failed to load corpus, starting empty", zap.Error(err))
		c, idx = domain.Corpus{}, nil
	}
	s.corpus, s.idx = c, idx
	metrics.CorpusChunks.Set(float64(c.Len()))

	logger.Info("Corpus loaded",
		zap.Int("chunks", c.Len()),
		zap.Int("documents", len(distinct(c.Paths))),
	)
	return s
}

// WithTopK sets the default number of retrieved passages.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// TopK returns the default number of retrieved passages.
func (s *Service) TopK() int { return s.topK }

// ProcessDocuments extracts, chunks and embeds every document and replaces
// the whole corpus and index with the result. It returns false when no chunk
// was produced or embedding failed; the previous state is then kept.
func (s *Service) ProcessDocuments(ctx context.Context, paths []string) bool {
	var next domain.Corpus
	for _, p := range paths {
		norm := domain.NormalizePath(p)
		text := s.extractor.Text(norm)
		if strings.TrimSpace(text) == "" {
			s.logger.Warn("No text extracted, skipping document", zap.String("path", norm))
			continue
		}
		chunks := s.splitter.Split(text)
		next.Append(filepath.Base(norm), norm, chunks)
		s.logger.Debug("Document chunked", zap.String("path", norm), zap.Int("chunks", len(chunks)))
	}

	if next.Len() == 0 {
		s.logger.Warn("No chunks produced", zap.Int("documents", len(paths)))
		metrics.CorpusRebuildsTotal.WithLabelValues("ingest", "empty").Inc()
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.buildIndex(ctx, next.Chunks)
	if err != nil {
		s.logger.Error("Failed to index documents", zap.Int("chunks", next.Len()), zap.Error(err))
		metrics.CorpusRebuildsTotal.WithLabelValues("ingest", "error").Inc()
		return false
	}

	s.commit(next, idx)
	metrics.CorpusRebuildsTotal.WithLabelValues("ingest", "ok").Inc()
	s.logger.Info("Documents indexed",
		zap.Int("documents", len(distinct(next.Paths))),
		zap.Int("chunks", next.Len()),
	)
	return true
}

// RemoveFile deletes every chunk of the document at path and rebuilds the
// index from the remaining chunks. It returns false when the path is not
// indexed or re-embedding failed.
func (s *Service) RemoveFile(ctx context.Context, path string) bool {
	norm := domain.NormalizePath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	positions := s.corpus.Positions(norm)
	if len(positions) == 0 {
		s.logger.Warn("Document not indexed", zap.String("path", norm))
		return false
	}

	next := s.corpus.Without(positions)

	var idx *index.Flat
	if next.Len() > 0 {
		var err error
		idx, err = s.buildIndex(ctx, next.Chunks)
		if err != nil {
			s.logger.Error("Failed to rebuild index after removal", zap.String("path", norm), zap.Error(err))
			metrics.CorpusRebuildsTotal.WithLabelValues("remove", "error").Inc()
			return false
		}
	}

	s.commit(next, idx)
	metrics.CorpusRebuildsTotal.WithLabelValues("remove", "ok").Inc()
	s.logger.Info("Document removed",
		zap.String("path", norm),
		zap.Int("removed_chunks", len(positions)),
		zap.Int("remaining_chunks", next.Len()),
	)
	return true
}

// Retrieve returns up to topK passages nearest to query, ascending by
// distance, restricted to selectedPaths when it is non-empty. Positions
// outside the selection are dropped, not backfilled.
func (s *Service) Retrieve(ctx context.Context, query string, topK int, selectedPaths []string) []domain.Passage {
	if topK <= 0 {
		topK = s.topK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.idx == nil || s.corpus.Len() == 0 {
		return nil
	}

	res, err := s.queryEmbedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("Failed to embed query", zap.Error(err))
		return nil
	}

	distances, positions, err := s.idx.Search(res.Embedding, topK)
	if err != nil {
		s.logger.Error("Index search failed", zap.Error(err))
		return nil
	}

	selected := domain.NormalizePaths(selectedPaths)
	passages := make([]domain.Passage, 0, len(positions))
	for i, pos := range positions {
		path := s.corpus.Paths[pos]
		if len(selected) > 0 && !slices.Contains(selected, path) {
			continue
		}
		passages = append(passages, domain.Passage{
			Text:    s.corpus.Chunks[pos],
			DocName: s.corpus.Documents[pos],
			DocPath: path,
			Score:   similarity(distances[i]),
		})
	}
	return passages
}

// Len returns the number of indexed chunks.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus.Len()
}

// Paths returns the distinct indexed document paths in corpus order.
func (s *Service) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.corpus.Paths)
}

func (s *Service) buildIndex(ctx context.Context, chunks []string) (*index.Flat, error) {
	vectors, err := domain.EmbedAll(ctx, s.docEmbedder, chunks)
	if err != nil {
		return nil, err //nolint:wrapcheck // EmbedAll already adds context
	}
	return index.Build(vectors) //nolint:wrapcheck // single call site
}

// commit swaps in the new state and persists it. Persistence failures are
// logged; the in-memory state stays authoritative. Caller holds the write lock.
func (s *Service) commit(c domain.Corpus, idx *index.Flat) {
	s.corpus, s.idx = c, idx
	metrics.CorpusChunks.Set(float64(c.Len()))
	if err := s.store.Save(c, idx); err != nil {
		s.logger.Error("Failed to persist corpus", zap.Error(err))
	}
}

// similarity maps a squared L2 distance to a display score in (0, 100].
func similarity(d float64) float64 {
	return math.Round(100/(1+d)*100) / 100
}

func distinct(paths []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
