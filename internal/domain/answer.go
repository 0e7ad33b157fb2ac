package domain

// Passage is a single retrieval hit.
type Passage struct {
	Text    string
	DocName string
	DocPath string
	// Score is the display similarity 100/(1+d), rounded to 2 decimals.
	Score float64
}

// Source is a cited document attached to an answer.
type Source struct {
	Name              string  `json:"name"`
	Path              string  `json:"path"`
	FileSize          int64   `json:"file_size"`
	PageCount         int     `json:"page_count"`
	SimilarityPercent float64 `json:"similarity_percent"`
	Href              string  `json:"href,omitempty"`
}

// Answer is the result of a chat turn. Sources is never nil.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
