// internal/models/session.go
package models

import "time"

type ClarificationMode string

const (
	ModeDirect           ClarificationMode = "DIRECT"
	ModeAwaitingFollowUp ClarificationMode = "AWAITING_FOLLOW_UP"
)

// ClarificationState lives only while a clarification cycle is open.
// The zero value is the DIRECT state.
type ClarificationState struct {
	OriginalQuery      string   `json:"originalQuery,omitempty"`
	AccumulatedContext []string `json:"accumulatedContext,omitempty"`
	FollowUpQuestions  []string `json:"followUpQuestions,omitempty"`
	NeedsFollowUp      bool     `json:"needsFollowUp"`
}

func (s *ClarificationState) Mode() ClarificationMode {
	if s.NeedsFollowUp {
		return ModeAwaitingFollowUp
	}
	return ModeDirect
}

func (s *ClarificationState) Reset() {
	*s = ClarificationState{}
}

// Session is the explicit per-student context that replaces shared UI state.
type Session struct {
	ID            string             `json:"id"`
	StudentID     string             `json:"studentId"`
	Course        string             `json:"course"`
	Major         string             `json:"major"`
	Degree        string             `json:"degree"`
	Clarification ClarificationState `json:"clarification"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

type Course struct {
	Code   string `json:"code" db:"code"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}
