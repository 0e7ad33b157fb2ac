package chat

import (
	"context"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

// Retriever finds passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, selectedPaths []string) []domain.Passage
}

// Completer sends a prompt to a chat-completion endpoint.
type Completer interface {
	Complete(ctx context.Context, endpoint, model, prompt string) (string, error)
}

// PageCounter reports the number of pages of a document, 0 when unknown.
type PageCounter interface {
	PageCount(path string) int
}
