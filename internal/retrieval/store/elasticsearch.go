package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prism-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	logger Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, log Logger) *ElasticsearchStore {
	return &ElasticsearchStore{client: client, index: index, logger: log}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64              `json:"_score"`
			Source models.EvidenceChunk `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Courses struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int64  `json:"doc_count"`
			} `json:"buckets"`
		} `json:"courses"`
	} `json:"aggregations"`
}

func (s *ElasticsearchStore) search(ctx context.Context, body map[string]interface{}, size int) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &r, nil
}

func (s *ElasticsearchStore) Query(ctx context.Context, text, course string, topK int) ([]models.EvidenceChunk, error) {
	start := time.Now()

	r, err := s.search(ctx, buildEvidenceQuery(text, course), topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.EvidenceChunk, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		chunk := hit.Source
		chunk.Score = hit.Score
		chunks = append(chunks, chunk)
	}

	fields := map[string]interface{}{
		"course":     course,
		"query":      text,
		"results":    len(chunks),
		"durationMs": time.Since(start).Milliseconds(),
	}
	if len(chunks) > 0 {
		fields["topScore"] = chunks[0].Score
		fields["topDocument"] = chunks[0].DocumentName
		fields["topPage"] = chunks[0].PageNumber
	}
	s.logger.Info("evidence store query", fields)

	return chunks, nil
}

// Stats summarises the index for operators.
type Stats struct {
	Index     string
	Documents int64
	Courses   map[string]int64
}

func (s *ElasticsearchStore) Stats(ctx context.Context, maxCourses int) (*Stats, error) {
	r, err := s.search(ctx, buildCourseNamesQuery(maxCourses), 0)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Index: s.index, Documents: r.Hits.Total.Value, Courses: map[string]int64{}}
	for _, b := range r.Aggregations.Courses.Buckets {
		stats.Courses[b.Key] = b.DocCount
	}
	return stats, nil
}

// Sample returns n unfiltered chunks, which shows what course names are stored.
func (s *ElasticsearchStore) Sample(ctx context.Context, n int) ([]models.EvidenceChunk, error) {
	r, err := s.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	}, n)
	if err != nil {
		return nil, err
	}

	out := make([]models.EvidenceChunk, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		chunk := hit.Source
		chunk.Score = hit.Score
		out = append(out, chunk)
	}
	return out, nil
}
