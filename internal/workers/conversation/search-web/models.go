// internal/workers/conversation/search-web/models.go
package searchweb

import "prism-workers/internal/models"

type Input struct {
	Query      string `json:"query" validate:"required,min=1"`
	Course     string `json:"course"`
	NumResults int    `json:"numResults" validate:"omitempty,min=1,max=10"`
}

type Output struct {
	Results       string                `json:"results"`
	Citations     []models.WebCitation  `json:"citations"`
	RawResults    []models.SearchResult `json:"rawResults"`
	TimeSensitive bool                  `json:"timeSensitive"`
	SearchError   string                `json:"searchError,omitempty"`
}
