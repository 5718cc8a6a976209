package generateflashcards

import "prism-workers/internal/models"

type Input struct {
	Topic              string             `json:"topic" validate:"required,min=1"`
	Course             string             `json:"course" validate:"required"`
	ExistingFlashcards []models.Flashcard `json:"existingFlashcards" validate:"omitempty,dive"`
	NumFlashcards      int                `json:"numFlashcards" validate:"omitempty,min=1"`
}

type Output struct {
	Flashcards []models.Flashcard        `json:"flashcards"`
	HasMore    bool                      `json:"hasMore"`
	Message    string                    `json:"message,omitempty"`
	Citations  []models.DocumentCitation `json:"citations"`
	// AllFlashcards is the existing set plus this batch, ready to pass back
	// as existingFlashcards on the next call.
	AllFlashcards []models.Flashcard `json:"allFlashcards"`
}
