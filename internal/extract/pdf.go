// Package extract reads plain text and page counts from PDF files.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDF extracts text with best-effort semantics: failures are logged and
// reported as empty text or zero pages.
type PDF struct {
	logger *zap.Logger
}

// NewPDF creates a PDF extractor.
func NewPDF(logger *zap.Logger) *PDF {
	return &PDF{logger: logger}
}

// Text returns every page's text joined by a newline, or "" on failure.
func (p *PDF) Text(path string) string {
	text, err := readText(path)
	if err != nil {
		p.logger.Warn("Failed to extract text from PDF", zap.String("path", path), zap.Error(err))
		return ""
	}
	return text
}

// PageCount returns the number of pages, or 0 on failure.
func (p *PDF) PageCount(path string) int {
	n, err := countPages(path)
	if err != nil {
		p.logger.Warn("Failed to read PDF page count", zap.String("path", path), zap.Error(err))
		return 0
	}
	return n
}

func readText(path string) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		s, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, s)
	}
	return strings.Join(pages, "\n"), nil
}

func countPages(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
