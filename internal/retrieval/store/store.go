// Package store reads course evidence from Elasticsearch.
package store

import (
	"context"

	"prism-workers/internal/models"
)

// EvidenceStore returns up to topK chunks for text, restricted to course,
// best match first.
type EvidenceStore interface {
	Query(ctx context.Context, text, course string, topK int) ([]models.EvidenceChunk, error)
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}
