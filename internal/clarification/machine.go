// Package clarification decides, turn by turn, whether a student's question
// can be answered yet or needs a follow-up question first.
package clarification

import (
	"context"
	"errors"
	"strings"

	"prism-workers/internal/common/metrics"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/answer"
)

const (
	moreInfoPrefix  = "I need a bit more information. "
	pendingResponse = "Processing your refined question..."
	apology         = "Sorry, I couldn't reach the course materials just now. Please try asking again in a moment."
)

var ErrEmptyUtterance = errors.New("INVALID_INPUT")

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Verdict is the classifier's judgement on a query. Response, when set, is
// a ready answer that needs no retrieval.
type Verdict struct {
	NeedsFollowUp     bool     `json:"needs_follow_up"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Response          string   `json:"response"`
}

func (v Verdict) ambiguous() bool {
	return v.NeedsFollowUp && len(v.FollowUpQuestions) > 0
}

type AmbiguityClassifier interface {
	Classify(ctx context.Context, query string, history []string) (Verdict, error)
}

type Answerer interface {
	Answer(ctx context.Context, query, course string) (answer.Answer, error)
}

type Reply struct {
	Text      string                    `json:"response"`
	FollowUp  bool                      `json:"followUp"`
	Mode      models.ClarificationMode  `json:"mode"`
	State     models.ClarificationState `json:"state"`
	Citations []models.DocumentCitation `json:"citations,omitempty"`
}

type Machine struct {
	classifier AmbiguityClassifier
	answerer   Answerer
	logger     Logger
}

func NewMachine(c AmbiguityClassifier, a Answerer, log Logger) *Machine {
	return &Machine{classifier: c, answerer: a, logger: log}
}

// Step advances state by one student utterance. state is owned by the
// caller's session and is modified in place.
func (m *Machine) Step(ctx context.Context, state *models.ClarificationState, utterance, course string) (Reply, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Reply{}, ErrEmptyUtterance
	}

	from := state.Mode()
	var reply Reply
	if from == models.ModeAwaitingFollowUp {
		reply = m.refine(ctx, state, utterance, course)
	} else {
		reply = m.direct(ctx, state, utterance, course)
	}

	reply.Mode = state.Mode()
	reply.State = *state
	metrics.ClarificationTransitions.WithLabelValues(string(from), string(reply.Mode)).Inc()
	return reply, nil
}

func (m *Machine) direct(ctx context.Context, state *models.ClarificationState, utterance, course string) Reply {
	verdict := m.classify(ctx, utterance, nil)
	if verdict.ambiguous() {
		q := verdict.FollowUpQuestions[0]
		state.OriginalQuery = utterance
		state.AccumulatedContext = []string{utterance}
		state.FollowUpQuestions = []string{q}
		state.NeedsFollowUp = true
		return Reply{Text: q, FollowUp: true}
	}
	return m.answer(ctx, verdict, utterance, course)
}

func (m *Machine) refine(ctx context.Context, state *models.ClarificationState, utterance, course string) Reply {
	state.AccumulatedContext = append(state.AccumulatedContext, utterance)
	combined := state.OriginalQuery + " " + utterance

	verdict := m.classify(ctx, combined, state.AccumulatedContext)
	if verdict.ambiguous() {
		q := verdict.FollowUpQuestions[0]
		state.OriginalQuery = combined
		state.FollowUpQuestions = []string{q}
		return Reply{Text: moreInfoPrefix + q, FollowUp: true}
	}

	reply := m.answer(ctx, verdict, combined, course)
	Reset(state)
	return reply
}

// classify treats a classifier failure as "not ambiguous".
func (m *Machine) classify(ctx context.Context, query string, history []string) Verdict {
	verdict, err := m.classifier.Classify(ctx, query, history)
	if err != nil {
		m.logger.Warn("ambiguity check failed, answering directly", map[string]interface{}{
			"query": query,
			"error": err,
		})
		return Verdict{}
	}
	return verdict
}

func (m *Machine) answer(ctx context.Context, verdict Verdict, query, course string) Reply {
	if verdict.Response != "" {
		return Reply{Text: verdict.Response}
	}
	if m.answerer == nil {
		return Reply{Text: pendingResponse}
	}

	ans, err := m.answerer.Answer(ctx, query, course)
	if err != nil {
		m.logger.Warn("answer failed", map[string]interface{}{
			"query": query,
			"error": err,
		})
		return Reply{Text: apology}
	}
	m.logger.Info("query answered", map[string]interface{}{
		"query":    query,
		"grounded": ans.Grounded,
	})
	return Reply{Text: ans.Text, Citations: ans.Citations}
}

// Reset returns state to DIRECT, discarding any open clarification cycle.
func Reset(state *models.ClarificationState) {
	state.Reset()
}
