// Package chat composes answers: retrieval, prompt assembly, one completion
// call and citation linking.
package chat

import (
	"context"
	"errors"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

// NoInformationAnswer is returned when retrieval finds nothing.
const NoInformationAnswer = "No relevant information found in the selected PDFs."

// Service answers questions over the indexed corpus. Chat never fails:
// completion errors become the answer text.
type Service struct {
	retriever Retriever
	completer Completer
	pages     PageCounter
	topK      int
	logger    *zap.Logger
}

// New creates a chat service. topK <= 0 lets the retriever pick its default.
func New(retriever Retriever, completer Completer, pages PageCounter, topK int, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		completer: completer,
		pages:     pages,
		topK:      topK,
		logger:    logger,
	}
}

// Chat retrieves context for message, asks the model at endpoint and returns
// the linked answer with its sources sorted by similarity.
func (s *Service) Chat(ctx context.Context, message, endpoint, model string, selectedPaths []string) domain.Answer {
	passages := s.retriever.Retrieve(ctx, message, s.topK, selectedPaths)
	if len(passages) == 0 {
		return domain.Answer{Answer: NoInformationAnswer, Sources: []domain.Source{}}
	}

	sources := s.sources(passages)
	prompt := buildPrompt(buildContext(passages), message)

	raw, err := s.completer.Complete(ctx, endpoint, model, prompt)
	if err != nil {
		s.logger.Warn("Completion failed",
			zap.String("endpoint", endpoint),
			zap.String("model", model),
			zap.Error(err),
		)
		return domain.Answer{Answer: failureAnswer(err), Sources: []domain.Source{}}
	}

	for i := range sources {
		sources[i].Href = uploadHref(sources[i].Path)
	}

	s.logger.Debug("Chat answered",
		zap.Int("passages", len(passages)),
		zap.Int("sources", len(sources)),
	)

	return domain.Answer{Answer: linkCitations(raw, sources), Sources: sources}
}

// sources keeps the first passage per document name and sorts the result by
// score, highest first. Equal scores keep first-seen order.
func (s *Service) sources(passages []domain.Passage) []domain.Source {
	seen := make(map[string]struct{}, len(passages))
	out := make([]domain.Source, 0, len(passages))
	for _, p := range passages {
		if _, ok := seen[p.DocName]; ok {
			continue
		}
		seen[p.DocName] = struct{}{}
		out = append(out, domain.Source{
			Name:              p.DocName,
			Path:              p.DocPath,
			FileSize:          fileSize(p.DocPath),
			PageCount:         s.pages.PageCount(p.DocPath),
			SimilarityPercent: p.Score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimilarityPercent > out[j].SimilarityPercent
	})
	return out
}

func failureAnswer(err error) string {
	cause := err
	var ce *domain.CompletionError
	if errors.As(err, &ce) {
		cause = ce
	}
	if errors.Is(err, domain.ErrCompletionResponse) {
		return "Error parsing LLM response: " + cause.Error()
	}
	return "Error calling LLM API: " + cause.Error()
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
