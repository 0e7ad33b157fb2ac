package chat

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pdfrag/internal/domain"
)

// uploadHref is the download link of a source document.
func uploadHref(path string) string {
	return "/uploads/" + filepath.Base(path)
}

func anchor(href string, n int) string {
	return `<a href="` + href + `" target="_blank">[` + strconv.Itoa(n) + `]</a>`
}

// linkCitations rewrites the answer in two independent passes over the
// sources in order, numbered from 1. First every whole-word mention of a
// source name becomes a link, then every literal "[n]" becomes the same
// link. A "[n]" the model placed next to a file name is therefore wrapped
// twice; this matches the established output and is kept.
func linkCitations(answer string, sources []domain.Source) string {
	for i, src := range sources {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(src.Name) + `\b`)
		if err != nil {
			continue
		}
		answer = re.ReplaceAllLiteralString(answer, anchor(src.Href, i+1))
	}
	for i, src := range sources {
		n := i + 1
		answer = strings.ReplaceAll(answer, "["+strconv.Itoa(n)+"]", anchor(src.Href, n))
	}
	return answer
}
