// Package answer answers a student question from curated course evidence.
package answer

import (
	"context"
	"errors"
	"fmt"

	"prism-workers/internal/llm"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/curator"
)

var ErrRetrievalFailed = errors.New("EVIDENCE_QUERY_FAILED")

const systemPrompt = `You are PRISM, a teaching assistant for a single university course.
Answer the student's question using ONLY the numbered course sources provided.
Cite sources inline as [Source n]. If the sources do not contain the answer, say so plainly and suggest what the student could ask instead.
Ignore bibliography entries and works cited by the sources; describe the course material itself.`

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Curator interface {
	Curate(ctx context.Context, req curator.Request) curator.Result
}

type Completer interface {
	Complete(ctx context.Context, system, user string, opts ...llm.Option) (string, error)
}

type Answer struct {
	Text      string                    `json:"text"`
	Citations []models.DocumentCitation `json:"citations,omitempty"`
	Grounded  bool                      `json:"grounded"`
}

type Answerer struct {
	curator     Curator
	llm         Completer
	temperature float64
	logger      Logger
}

func New(c Curator, completer Completer, temperature float64, log Logger) *Answerer {
	return &Answerer{curator: c, llm: completer, temperature: temperature, logger: log}
}

// Answer curates evidence for query and asks the model to answer from it.
// An empty evidence set is not an error: the curator's message is returned
// as the answer text.
func (a *Answerer) Answer(ctx context.Context, query, course string) (Answer, error) {
	curated := a.curator.Curate(ctx, curator.Request{Topic: query, Course: course})
	if curated.Error != "" {
		return Answer{}, fmt.Errorf("%w: %s", ErrRetrievalFailed, curated.Error)
	}
	if curated.Exhausted {
		return Answer{Text: curated.Message}, nil
	}

	user := fmt.Sprintf("Course: %s\n\nSources:\n%s\nQuestion: %s", course, curated.Context, query)
	text, err := a.llm.Complete(ctx, systemPrompt, user, llm.Temperature(a.temperature))
	if err != nil {
		a.logger.Error("answer synthesis failed", map[string]interface{}{
			"query": query,
			"error": err,
		})
		return Answer{}, err
	}

	a.logger.Info("answer synthesized", map[string]interface{}{
		"query":     query,
		"course":    course,
		"evidence":  len(curated.Evidence),
		"citations": len(curated.Citations),
	})
	return Answer{Text: text, Citations: curated.Citations, Grounded: true}, nil
}
