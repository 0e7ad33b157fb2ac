package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Corpus holds three index-aligned sequences: position i of Chunks, Documents
// and Paths describes the same chunk.
type Corpus struct {
	Chunks    []string
	Documents []string
	Paths     []string
}

// Len returns the number of corpus positions.
func (c Corpus) Len() int { return len(c.Chunks) }

// Validate checks that all three sequences have equal length.
func (c Corpus) Validate() error {
	if len(c.Documents) != len(c.Chunks) || len(c.Paths) != len(c.Chunks) {
		return fmt.Errorf("chunks=%d documents=%d paths=%d: %w",
			len(c.Chunks), len(c.Documents), len(c.Paths), ErrCorpusMisaligned)
	}
	return nil
}

// Append adds the chunks of one document, all sharing its name and path.
func (c *Corpus) Append(name, path string, chunks []string) {
	for _, ch := range chunks {
		c.Chunks = append(c.Chunks, ch)
		c.Documents = append(c.Documents, name)
		c.Paths = append(c.Paths, path)
	}
}

// Positions returns every position whose path equals path, ascending.
func (c Corpus) Positions(path string) []int {
	var out []int
	for i, p := range c.Paths {
		if p == path {
			out = append(out, i)
		}
	}
	return out
}

// Without returns a copy of the corpus with the given ascending positions removed.
// The receiver is left untouched.
func (c Corpus) Without(positions []int) Corpus {
	out := Corpus{
		Chunks:    append([]string(nil), c.Chunks...),
		Documents: append([]string(nil), c.Documents...),
		Paths:     append([]string(nil), c.Paths...),
	}
	// Highest index first so earlier positions keep their offsets.
	for i := len(positions) - 1; i >= 0; i-- {
		p := positions[i]
		out.Chunks = append(out.Chunks[:p], out.Chunks[p+1:]...)
		out.Documents = append(out.Documents[:p], out.Documents[p+1:]...)
		out.Paths = append(out.Paths[:p], out.Paths[p+1:]...)
	}
	return out
}

// NormalizePath rewrites both slash styles to the OS separator.
func NormalizePath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// NormalizePaths applies NormalizePath to every element.
func NormalizePaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = NormalizePath(p)
	}
	return out
}
