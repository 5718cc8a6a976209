// internal/models/search.go
package models

type ResultKind string

const (
	ResultKindAnswer  ResultKind = "answer"
	ResultKindOrganic ResultKind = "organic"
)

// SearchResult is a ranked web hit. Position 0 is reserved for the
// provider's aggregate answer.
type SearchResult struct {
	Title         string     `json:"title"`
	Snippet       string     `json:"snippet"`
	Link          string     `json:"link"`
	Position      int        `json:"position"`
	Score         float64    `json:"score"`
	ExtractedYear int        `json:"year,omitempty"`
	Kind          ResultKind `json:"type"`
}

func (r SearchResult) IsAnswer() bool {
	return r.Kind == ResultKindAnswer
}

type WebCitation struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}
