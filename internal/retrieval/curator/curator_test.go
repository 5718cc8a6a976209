package curator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }

type fakeStore struct {
	byQuery map[string][]models.EvidenceChunk
	errs    map[string]error
	queries []string
}

func (s *fakeStore) Query(ctx context.Context, text, course string, topK int) ([]models.EvidenceChunk, error) {
	s.queries = append(s.queries, text)
	if err := s.errs[text]; err != nil {
		return nil, err
	}
	return s.byQuery[text], nil
}

func chunk(content, doc string, page int) models.EvidenceChunk {
	return models.EvidenceChunk{Content: content, DocumentName: doc, PageNumber: page, CourseName: "CSCE 5310"}
}

func bodyChunks(n int) []models.EvidenceChunk {
	out := make([]models.EvidenceChunk, n)
	for i := range out {
		out[i] = chunk(fmt.Sprintf("Chunk %02d explains how query planners pick join orders.", i), "lecture-04.pdf", i+1)
	}
	return out
}

func newTestCurator(t *testing.T, s *fakeStore) *Curator {
	return New(s, classifier.Default(classifier.DefaultThresholds()), DefaultConfig(), &TestLogger{t})
}

func TestEnhance(t *testing.T) {
	tests := []struct {
		topic    string
		enhanced string
	}{
		{"Who wrote this paper?", "Who wrote this paper? document paper authors contributors"},
		{"list the AUTHORS", "list the AUTHORS document paper authors contributors"},
		{"who developed Raft", "who developed Raft document paper authors contributors"},
		{"B-tree splits", "B-tree splits"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			q := Enhance(tt.topic)
			assert.Equal(t, tt.topic, q.RawText)
			assert.Equal(t, tt.enhanced, q.EnhancedText)
		})
	}
}

func TestCurate_NoContent(t *testing.T) {
	c := newTestCurator(t, &fakeStore{})

	res := c.Curate(context.Background(), Request{Topic: "nonexistent topic xyz", Course: "CSCE 5310"})

	assert.True(t, res.Exhausted)
	assert.Equal(t, "No content found for 'nonexistent topic xyz'. Please try a different topic.", res.Message)
	assert.Empty(t, res.Evidence)
	assert.Empty(t, res.Error)
	assert.Equal(t, OutcomeNoContent, res.Outcome)
}

func TestCurate_TransportErrorIsDowngraded(t *testing.T) {
	s := &fakeStore{errs: map[string]error{"joins": errors.New("dial tcp: connection refused")}}
	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins", Course: "CSCE 5310"})

	assert.True(t, res.Exhausted)
	assert.Equal(t, NoContentMessage("joins"), res.Message)
	assert.Contains(t, res.Error, "connection refused")
	assert.Equal(t, OutcomeError, res.Outcome)
}

func TestCurate_RetriesWithRawTopic(t *testing.T) {
	topic := "who wrote the paper"
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{
		topic + authorshipSuffix: bodyChunks(2),
		topic:                    bodyChunks(5),
	}}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: topic, Course: "CSCE 5310"})

	assert.Equal(t, []string{topic + authorshipSuffix, topic}, s.queries)
	assert.Len(t, res.Evidence, 5)
	assert.False(t, res.Exhausted)
}

func TestCurate_EnhancedErrorRecoveredByRetry(t *testing.T) {
	topic := "authors of the survey"
	s := &fakeStore{
		byQuery: map[string][]models.EvidenceChunk{topic: bodyChunks(3)},
		errs:    map[string]error{topic + authorshipSuffix: errors.New("timeout")},
	}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: topic})
	assert.Len(t, res.Evidence, 3)
	assert.Empty(t, res.Error)
}

func TestCurate_NoRetryWhenNotEnhanced(t *testing.T) {
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": bodyChunks(1)}}
	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins"})

	assert.Equal(t, []string{"joins"}, s.queries)
	assert.Len(t, res.Evidence, 1)
}

func TestCurate_ExcludesConsumedEvidence(t *testing.T) {
	pool := bodyChunks(6)
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": pool}}
	c := newTestCurator(t, s)

	for n := 0; n <= len(pool); n++ {
		exclude := map[string]struct{}{}
		for _, ch := range pool[:n] {
			exclude[ch.Fingerprint()] = struct{}{}
		}

		res := c.Curate(context.Background(), Request{Topic: "joins", ExcludeIDs: exclude})
		for _, ev := range res.Evidence {
			_, excluded := exclude[ev.Fingerprint()]
			assert.False(t, excluded, "excluded chunk returned with %d exclusions", n)
		}

		if n == len(pool) {
			assert.True(t, res.Exhausted)
			assert.Equal(t, SaturatedMessage, res.Message)
			assert.Equal(t, OutcomeSaturated, res.Outcome)
		} else {
			assert.Len(t, res.Evidence, len(pool)-n)
		}
	}
}

func TestCurate_DropsReferenceNoise(t *testing.T) {
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": {
		chunk("Hash joins build a table on the smaller input.", "lecture-04.pdf", 3),
		chunk("Smith, J. (2019). Join algorithms revisited. VLDB.", "lecture-04.pdf", 30),
		chunk("Sort-merge joins need sorted inputs.", "Bibliography.pdf", 1),
		chunk("Nested loop joins compare every pair of rows.", "lecture-04.pdf", 4),
	}}}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins"})

	require.Len(t, res.Evidence, 2)
	assert.Equal(t, 3, res.Evidence[0].PageNumber)
	assert.Equal(t, 4, res.Evidence[1].PageNumber)
	assert.Equal(t, OutcomeCurated, res.Outcome)
}

func TestCurate_FallsBackWhenEverythingLooksLikeReferences(t *testing.T) {
	refs := []models.EvidenceChunk{
		chunk("Smith, J. (2019). Join algorithms revisited. VLDB.", "lecture-04.pdf", 30),
		chunk("Doe, A. (2021). Adaptive joins. SIGMOD.", "lecture-04.pdf", 31),
		chunk("Lee, K. (2022). Learned optimizers. CIDR.", "lecture-04.pdf", 32),
	}
	exclude := map[string]struct{}{refs[0].Fingerprint(): {}}
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": refs}}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins", ExcludeIDs: exclude})

	assert.False(t, res.Exhausted)
	assert.Equal(t, refs[1:], res.Evidence)
	assert.Equal(t, OutcomeFallback, res.Outcome)
}

func TestCurate_TruncatesInRetrievalOrder(t *testing.T) {
	pool := bodyChunks(15)
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": pool}}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins"})
	assert.Equal(t, pool[:10], res.Evidence)

	res = newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins", MaxCandidates: 4})
	assert.Equal(t, pool[:4], res.Evidence)
}

func TestCurate_ContextAndCitations(t *testing.T) {
	s := &fakeStore{byQuery: map[string][]models.EvidenceChunk{"joins": {
		chunk("Hash joins.", "lecture-04.pdf", 3),
		chunk("More on hash joins.", "lecture-04.pdf", 3),
		chunk("Merge joins.", "lecture-05.pdf", 1),
	}}}

	res := newTestCurator(t, s).Curate(context.Background(), Request{Topic: "joins"})

	assert.Equal(t,
		"[Source 1] Page 3 from lecture-04.pdf:\nHash joins.\n\n"+
			"[Source 2] Page 3 from lecture-04.pdf:\nMore on hash joins.\n\n"+
			"[Source 3] Page 1 from lecture-05.pdf:\nMerge joins.\n",
		res.Context)
	assert.Equal(t, []models.DocumentCitation{
		{Document: "lecture-04.pdf", Page: 3},
		{Document: "lecture-05.pdf", Page: 1},
	}, res.Citations)
}

func TestFingerprint_ConfiguredLength(t *testing.T) {
	c := New(&fakeStore{}, classifier.Default(classifier.Thresholds{}), Config{FingerprintLength: 5}, &TestLogger{t})
	assert.Equal(t, "Hash ", c.Fingerprint(chunk("Hash joins.", "d", 1)))
}
