package corpus

import (
	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/index"
)

// Extractor reads plain text from a document. Failures yield "".
type Extractor interface {
	Text(path string) string
}

// Splitter cuts text into chunks.
type Splitter interface {
	Split(text string) []string
}

// Store persists the corpus together with its index.
type Store interface {
	Save(c domain.Corpus, idx *index.Flat) error
	Load() (domain.Corpus, *index.Flat, error)
}
