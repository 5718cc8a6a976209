// internal/workers/conversation/resolve-query/models.go
package resolvequery

import "prism-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId" validate:"required"`
	Query     string `json:"query" validate:"required,min=1"`
}

type Output struct {
	SessionID         string                    `json:"sessionId"`
	Response          string                    `json:"response"`
	NeedsFollowUp     bool                      `json:"needsFollowUp"`
	FollowUpQuestions []string                  `json:"followUpQuestions"`
	Mode              models.ClarificationMode  `json:"mode"`
	Citations         []models.DocumentCitation `json:"citations"`
}
