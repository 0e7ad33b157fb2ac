package corpus

import "github.com/kailas-cloud/pdfrag/internal/domain"

// documentsFile is the on-disk layout of documents.json.
type documentsFile struct {
	Documents     []string `json:"documents"`
	DocumentPaths []string `json:"document_paths"`
	Chunks        []string `json:"chunks"`
}

func toFile(c domain.Corpus) documentsFile {
	f := documentsFile{
		Documents:     c.Documents,
		DocumentPaths: c.Paths,
		Chunks:        c.Chunks,
	}
	// Always write arrays, never null.
	if f.Documents == nil {
		f.Documents = []string{}
	}
	if f.DocumentPaths == nil {
		f.DocumentPaths = []string{}
	}
	if f.Chunks == nil {
		f.Chunks = []string{}
	}
	return f
}

func fromFile(f documentsFile) domain.Corpus {
	return domain.Corpus{
		Chunks:    f.Chunks,
		Documents: f.Documents,
		Paths:     domain.NormalizePaths(f.DocumentPaths),
	}
}
