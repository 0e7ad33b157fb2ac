// Package chunker splits extracted document text into overlapping fixed-size windows.
package chunker

import "fmt"

// Defaults used when no configuration is provided.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker cuts text into windows of Size characters, each sharing Overlap
// characters with its predecessor. Lengths are counted in runes.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. overlap must be non-negative and smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the nominal chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunks of text in order. Empty text yields nil.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, Count(n, c.size, c.overlap))
	for start := 0; start < n; start += step {
		end := min(start+c.size, n)
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Count returns how many chunks Split produces for a text of n runes.
func Count(n, size, overlap int) int {
	if n <= 0 {
		return 0
	}
	step := size - overlap
	return (n + step - 1) / step
}
