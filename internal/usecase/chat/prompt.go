package chat

import (
	"strings"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context from PDF documents.

Context:
{context}

Question: {message}

Answer the question based only on the provided context. If the context doesn't contain enough information to answer the question, say so.

When referencing information from specific documents, use numbered citations like [1], [2], etc. corresponding to the sources provided.`

// buildContext joins passages as "From {doc}: {chunk}" blocks in retrieval order.
func buildContext(passages []domain.Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = "From " + p.DocName + ": " + p.Text
	}
	return strings.Join(blocks, "\n\n")
}

// buildPrompt fills the template in one pass so placeholders inside the
// context or question are left alone.
func buildPrompt(contextText, message string) string {
	r := strings.NewReplacer("{context}", contextText, "{message}", message)
	return r.Replace(promptTemplate)
}
