// Package curator turns a topic into a filtered, de-duplicated evidence set.
package curator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prism-workers/internal/common/metrics"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/classifier"
	"prism-workers/internal/retrieval/store"
)

const (
	OutcomeCurated   = "curated"
	OutcomeFallback  = "fallback"
	OutcomeNoContent = "no_content"
	OutcomeSaturated = "saturated"
	OutcomeError     = "error"
)

var authorshipKeywords = []string{"author", "who wrote", "who created", "who developed"}

const authorshipSuffix = " document paper authors contributors"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Config struct {
	TopK              int
	MinResults        int
	MaxCandidates     int
	FingerprintLength int
}

func DefaultConfig() Config {
	return Config{TopK: 15, MinResults: 3, MaxCandidates: 10, FingerprintLength: models.DefaultFingerprintLength}
}

type Request struct {
	Topic         string
	Course        string
	ExcludeIDs    map[string]struct{}
	MaxCandidates int // 0 uses Config.MaxCandidates
}

type Result struct {
	Query     models.Query
	Evidence  []models.EvidenceChunk
	Exhausted bool
	Message   string
	Context   string
	Citations []models.DocumentCitation
	Error     string
	Outcome   string
}

type Curator struct {
	store      store.EvidenceStore
	classifier *classifier.Classifier
	config     Config
	logger     Logger
}

func New(s store.EvidenceStore, c *classifier.Classifier, cfg Config, log Logger) *Curator {
	d := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = d.TopK
	}
	if cfg.MinResults <= 0 {
		cfg.MinResults = d.MinResults
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = d.MaxCandidates
	}
	if cfg.FingerprintLength <= 0 {
		cfg.FingerprintLength = d.FingerprintLength
	}
	return &Curator{store: s, classifier: c, config: cfg, logger: log}
}

// Fingerprint applies the configured fingerprint length to chunk.
func (c *Curator) Fingerprint(chunk models.EvidenceChunk) string {
	return models.FingerprintN(chunk.Content, c.config.FingerprintLength)
}

// Enhance biases authorship questions toward the document's own metadata.
func Enhance(topic string) models.Query {
	q := models.NewQuery(topic)
	lower := strings.ToLower(topic)
	for _, kw := range authorshipKeywords {
		if strings.Contains(lower, kw) {
			q.EnhancedText = topic + authorshipSuffix
			q.TopicHint = "authorship"
			break
		}
	}
	return q
}

func NoContentMessage(topic string) string {
	return fmt.Sprintf("No content found for '%s'. Please try a different topic.", topic)
}

const SaturatedMessage = "We've covered everything available for this topic! Try asking about a different aspect or topic."

// Curate never returns an error; store failures come back as an exhausted
// result with Error set.
func (c *Curator) Curate(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.curate(ctx, req)
	metrics.CurationOutcomes.WithLabelValues(res.Outcome).Inc()

	c.logger.Info("curation finished", map[string]interface{}{
		"topic":      req.Topic,
		"course":     req.Course,
		"outcome":    res.Outcome,
		"evidence":   len(res.Evidence),
		"excluded":   len(req.ExcludeIDs),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return res
}

func (c *Curator) curate(ctx context.Context, req Request) Result {
	query := Enhance(req.Topic)
	res := Result{Query: query}

	candidates, err := c.retrieve(ctx, query, req.Course)
	if err != nil {
		c.logger.Error("evidence retrieval failed", map[string]interface{}{
			"topic":  req.Topic,
			"course": req.Course,
			"error":  err,
		})
		res.Exhausted = true
		res.Message = NoContentMessage(req.Topic)
		res.Error = err.Error()
		res.Outcome = OutcomeError
		return res
	}

	if len(candidates) == 0 {
		res.Exhausted = true
		res.Message = NoContentMessage(req.Topic)
		res.Outcome = OutcomeNoContent
		return res
	}

	unused := make([]models.EvidenceChunk, 0, len(candidates))
	for _, chunk := range candidates {
		if _, seen := req.ExcludeIDs[c.Fingerprint(chunk)]; !seen {
			unused = append(unused, chunk)
		}
	}

	available := make([]models.EvidenceChunk, 0, len(unused))
	for _, chunk := range unused {
		verdict := c.classifier.Classify(chunk.Content, chunk.DocumentName)
		if verdict.IsReference {
			metrics.ClassifierRejections.WithLabelValues(verdict.FirstMatch()).Inc()
			continue
		}
		available = append(available, chunk)
	}

	res.Outcome = OutcomeCurated
	if len(available) == 0 && len(unused) > 0 {
		c.logger.Warn("all candidates classified as references, using unfiltered candidates", map[string]interface{}{
			"topic":      req.Topic,
			"candidates": len(unused),
		})
		available = unused
		res.Outcome = OutcomeFallback
	}

	if len(available) == 0 {
		res.Exhausted = true
		res.Message = SaturatedMessage
		res.Outcome = OutcomeSaturated
		return res
	}

	limit := req.MaxCandidates
	if limit <= 0 {
		limit = c.config.MaxCandidates
	}
	if len(available) > limit {
		available = available[:limit]
	}

	res.Evidence = available
	res.Context = FormatContext(available)
	res.Citations = Citations(available)
	return res
}

// retrieve asks for the enhanced query first and falls back to the raw
// topic when that returns fewer than MinResults.
func (c *Curator) retrieve(ctx context.Context, q models.Query, course string) ([]models.EvidenceChunk, error) {
	chunks, err := c.store.Query(ctx, q.EnhancedText, course, c.config.TopK)
	if err == nil && len(chunks) >= c.config.MinResults {
		return chunks, nil
	}
	if !q.Enhanced() {
		return chunks, err
	}

	if err != nil {
		c.logger.Warn("enhanced query failed, retrying with original topic", map[string]interface{}{"error": err})
	} else {
		c.logger.Info("enhanced query returned few results, retrying with original topic", map[string]interface{}{
			"results": len(chunks),
		})
	}

	return c.store.Query(ctx, q.RawText, course, c.config.TopK)
}

// FormatContext renders evidence as numbered source blocks for a prompt.
func FormatContext(chunks []models.EvidenceChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[Source %d] Page %d from %s:\n%s\n",
			i+1, chunk.PageNumber, chunk.DocumentName, chunk.Content))
	}
	return strings.Join(parts, "\n")
}

// Citations lists each (document, page) pair once, in evidence order.
func Citations(chunks []models.EvidenceChunk) []models.DocumentCitation {
	seen := make(map[models.DocumentCitation]struct{}, len(chunks))
	out := make([]models.DocumentCitation, 0, len(chunks))
	for _, chunk := range chunks {
		key := models.DocumentCitation{Document: chunk.DocumentName, Page: chunk.PageNumber}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
