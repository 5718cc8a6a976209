// Package flashcards turns curated evidence into question/answer cards.
package flashcards

import (
	"context"
	"fmt"
	"time"

	"prism-workers/internal/common/metrics"
	"prism-workers/internal/llm"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/curator"
)

const (
	DefaultCount      = 5
	maxEvidence       = 10
	generationTemp    = 0.7
	unknownDocument   = "Unknown"
	generationFailure = "Error generating flashcards: %v"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Curator is the part of curator.Curator the generator depends on.
type Curator interface {
	Curate(ctx context.Context, req curator.Request) curator.Result
	Fingerprint(chunk models.EvidenceChunk) string
}

type Completer interface {
	Complete(ctx context.Context, system, user string, opts ...llm.Option) (string, error)
}

type Request struct {
	Topic    string
	Course   string
	Existing []models.Flashcard
	Count    int
}

type Result struct {
	Flashcards []models.Flashcard         `json:"flashcards"`
	HasMore    bool                      `json:"hasMore"`
	Message    string                    `json:"message,omitempty"`
	Citations  []models.DocumentCitation `json:"citations,omitempty"`
}

type Generator struct {
	curator     Curator
	llm         Completer
	temperature float64
	logger      Logger
}

// New builds a Generator. A temperature of 0 uses the default of 0.7.
func New(c Curator, completer Completer, temperature float64, log Logger) *Generator {
	if temperature <= 0 {
		temperature = generationTemp
	}
	return &Generator{curator: c, llm: completer, temperature: temperature, logger: log}
}

func (g *Generator) Generate(ctx context.Context, req Request) Result {
	count := req.Count
	if count <= 0 {
		count = DefaultCount
	}

	curated := g.curator.Curate(ctx, curator.Request{
		Topic:         req.Topic,
		Course:        req.Course,
		ExcludeIDs:    models.ContentIDs(req.Existing),
		MaxCandidates: maxEvidence,
	})
	if curated.Exhausted {
		return Result{Flashcards: []models.Flashcard{}, Message: curated.Message}
	}

	start := time.Now()
	raw, err := g.llm.Complete(ctx, systemPrompt, userPrompt(req.Topic, curated.Context, count),
		llm.Temperature(g.temperature), llm.JSONObject())
	if err != nil {
		g.logger.Error("flashcard generation failed", map[string]interface{}{
			"topic": req.Topic,
			"error": err,
		})
		return Result{Flashcards: []models.Flashcard{}, Message: fmt.Sprintf(generationFailure, err)}
	}

	parsed := Parse(raw)
	if parsed.Status == Unparseable {
		g.logger.Error("could not parse flashcard reply", map[string]interface{}{
			"topic": req.Topic,
			"reply": raw,
		})
	}

	cards := g.assemble(req.Topic, parsed.Cards, curated.Evidence, count)
	metrics.FlashcardsGenerated.Add(float64(len(cards)))

	g.logger.Info("flashcards generated", map[string]interface{}{
		"topic":      req.Topic,
		"course":     req.Course,
		"requested":  count,
		"generated":  len(cards),
		"skipped":    parsed.Skipped,
		"evidence":   len(curated.Evidence),
		"parse":      parsed.Status.String(),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return Result{
		Flashcards: cards,
		HasMore:    len(curated.Evidence)-len(cards) > 0 && len(cards) > 0,
		Citations:  curated.Citations,
	}
}

// assemble attributes draft i to evidence min(i, len-1). Drafts at or past
// count are dropped before validation, so a bad entry still uses up a slot.
func (g *Generator) assemble(topic string, drafts []CardDraft, evidence []models.EvidenceChunk, count int) []models.Flashcard {
	cards := make([]models.Flashcard, 0, count)
	for _, d := range drafts {
		if d.Index >= count {
			break
		}
		idx := d.Index
		if idx > len(evidence)-1 {
			idx = len(evidence) - 1
		}
		src := evidence[idx]

		doc := src.DocumentName
		if doc == "" {
			doc = unknownDocument
		}
		page := src.PageNumber

		cards = append(cards, models.Flashcard{
			Question:  d.Question,
			Answer:    d.Answer,
			Topic:     topic,
			ContentID: g.curator.Fingerprint(src),
			Source: models.FlashcardSource{
				Document:  doc,
				Module:    src.ModuleName,
				Page:      &page,
				Timestamp: src.Timestamp,
			},
		})
	}
	return cards
}
