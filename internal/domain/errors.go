package domain

import "errors"

var (
	// ErrEmptyCorpus signals that an ingestion batch produced no chunks.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrDocumentNotIndexed signals that no corpus position references a path.
	ErrDocumentNotIndexed = errors.New("document not indexed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrCorpusMisaligned signals that corpus sequences or index disagree in length.
	ErrCorpusMisaligned = errors.New("corpus misaligned")
	// ErrCorruptIndex signals an unreadable persisted index.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionRequest signals a transport or HTTP failure calling the completion service.
	ErrCompletionRequest = errors.New("completion request failed")
	// ErrCompletionResponse signals a completion response missing expected fields.
	ErrCompletionResponse = errors.New("malformed completion response")
)

// CompletionError carries a completion failure class (ErrCompletionRequest or
// ErrCompletionResponse) together with the underlying cause.
type CompletionError struct {
	Kind error
	Err  error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *CompletionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
