// internal/workers/session/reset-session/models.go
package resetsession

import "prism-workers/internal/models"

// Input resets the clarification cycle, or removes the session when Drop is set.
type Input struct {
	SessionID string `json:"sessionId" validate:"required"`
	Drop      bool   `json:"drop"`
}

type Output struct {
	SessionID string                   `json:"sessionId"`
	Dropped   bool                     `json:"dropped"`
	Mode      models.ClarificationMode `json:"mode"`
}
