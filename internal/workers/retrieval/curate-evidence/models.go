// internal/workers/retrieval/curate-evidence/models.go
package curateevidence

import "prism-workers/internal/models"

type Input struct {
	Topic         string   `json:"topic" validate:"required,min=1"`
	Course        string   `json:"course" validate:"required"`
	ExcludeIDs    []string `json:"excludeIds"`
	MaxCandidates int      `json:"maxCandidates" validate:"omitempty,min=1,max=50"`
}

type Output struct {
	Evidence  []models.EvidenceChunk    `json:"evidence"`
	Exhausted bool                      `json:"exhausted"`
	Message   string                    `json:"message,omitempty"`
	Context   string                    `json:"context"`
	Citations []models.DocumentCitation `json:"citations"`
	Outcome   string                    `json:"outcome"`
	Error     string                    `json:"retrievalError,omitempty"`
}
