// internal/models/flashcard.go
package models

type Flashcard struct {
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Topic     string          `json:"topic"`
	ContentID string          `json:"content_id"`
	Source    FlashcardSource `json:"source"`
}

type FlashcardSource struct {
	Document  string `json:"document"`
	Module    string `json:"module,omitempty"`
	Page      *int   `json:"page,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ContentIDs collects the fingerprints of already generated cards.
func ContentIDs(cards []Flashcard) map[string]struct{} {
	ids := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if c.ContentID == "" {
			continue
		}
		ids[c.ContentID] = struct{}{}
	}
	return ids
}
