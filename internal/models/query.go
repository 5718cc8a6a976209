// internal/models/query.go
package models

import "strings"

// Query is a user question plus the rewrite used for retrieval.
// RawText is never modified once the query is built.
type Query struct {
	RawText      string `json:"rawText"`
	EnhancedText string `json:"enhancedText"`
	TopicHint    string `json:"topicHint,omitempty"`
}

func NewQuery(raw string) Query {
	return Query{RawText: raw, EnhancedText: raw}
}

// Enhanced reports whether the rewrite differs from what the user typed.
func (q Query) Enhanced() bool {
	return strings.TrimSpace(q.EnhancedText) != strings.TrimSpace(q.RawText)
}
