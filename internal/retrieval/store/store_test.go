package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prism-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG: %s %v", msg, fields) }
func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }

const searchBody = `{
  "took": 3,
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_score": 7.5, "_source": {"content": "A B-tree keeps keys sorted.", "document_name": "lecture-02.pdf", "page_number": 4, "course_name": "CSCE 5310"}},
      {"_score": 3.1, "_source": {"content": "Hash indexes support equality lookups.", "document_name": "lecture-03.pdf", "page_number": 9, "module_name": "Indexing", "course_name": "CSCE 5310"}}
    ]
  },
  "aggregations": {"courses": {"buckets": [{"key": "CSCE 5310", "doc_count": 120}, {"key": "CSCE 5200", "doc_count": 40}]}}
}`

func newFakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}, DisableRetry: true})
	require.NoError(t, err)
	return es
}

func TestElasticsearchStore_Query(t *testing.T) {
	var gotBody map[string]interface{}
	var gotPath, gotSize string

	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSize = r.URL.Query().Get("size")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(searchBody))
	})

	s := NewElasticsearchStore(es, "course_chunks", &TestLogger{t})
	chunks, err := s.Query(context.Background(), "b-tree", "CSCE 5310", 15)
	require.NoError(t, err)

	assert.Equal(t, "/course_chunks/_search", gotPath)
	assert.Equal(t, "15", gotSize)

	boolQuery := gotBody["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "CSCE 5310", filter["term"].(map[string]interface{})["course_name"])

	require.Len(t, chunks, 2)
	assert.Equal(t, 7.5, chunks[0].Score)
	assert.Equal(t, "lecture-02.pdf", chunks[0].DocumentName)
	assert.Equal(t, 4, chunks[0].PageNumber)
	assert.Equal(t, "Indexing", chunks[1].ModuleName)
}

func TestElasticsearchStore_QueryError(t *testing.T) {
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	_, err := NewElasticsearchStore(es, "missing", &TestLogger{t}).Query(context.Background(), "q", "c", 5)
	assert.Error(t, err)
}

func TestElasticsearchStore_Stats(t *testing.T) {
	es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	})

	stats, err := NewElasticsearchStore(es, "course_chunks", &TestLogger{t}).Stats(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Documents)
	assert.Equal(t, map[string]int64{"CSCE 5310": 120, "CSCE 5200": 40}, stats.Courses)
}

type countingStore struct {
	calls  int
	chunks []models.EvidenceChunk
	err    error
}

func (s *countingStore) Query(ctx context.Context, text, course string, topK int) ([]models.EvidenceChunk, error) {
	s.calls++
	return s.chunks, s.err
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedStore_HitAfterMiss(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &countingStore{chunks: []models.EvidenceChunk{{Content: "B-trees", DocumentName: "l2.pdf", PageNumber: 1, Score: 2}}}
	s := NewCachedStore(inner, rdb, time.Minute, &TestLogger{t})

	first, err := s.Query(context.Background(), "b-tree", "CSCE 5310", 15)
	require.NoError(t, err)
	second, err := s.Query(context.Background(), "b-tree", "CSCE 5310", 15)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(CacheKey("CSCE 5310", 15, "b-tree")))
}

func TestCachedStore_EmptyResultsNotCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &countingStore{}
	s := NewCachedStore(inner, rdb, time.Minute, &TestLogger{t})

	_, _ = s.Query(context.Background(), "nothing", "CSCE 5310", 15)
	_, _ = s.Query(context.Background(), "nothing", "CSCE 5310", 15)

	assert.Equal(t, 2, inner.calls)
	assert.False(t, mr.Exists(CacheKey("CSCE 5310", 15, "nothing")))
}

func TestCachedStore_StoreErrorPropagates(t *testing.T) {
	_, rdb := setupRedis(t)
	inner := &countingStore{err: errors.New("connection refused")}

	_, err := NewCachedStore(inner, rdb, time.Minute, &TestLogger{t}).Query(context.Background(), "q", "c", 15)
	assert.EqualError(t, err, "connection refused")
}

func TestCachedStore_RedisDownFallsThrough(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	key := CacheKey("CSCE 5310", 15, "b-tree")
	chunks := []models.EvidenceChunk{{Content: "B-trees", DocumentName: "l2.pdf", PageNumber: 1}}
	data, _ := json.Marshal(chunks)

	redisMock.ExpectGet(key).SetErr(errors.New("redis down"))
	redisMock.ExpectSet(key, data, time.Minute).SetErr(errors.New("redis down"))

	inner := &countingStore{chunks: chunks}
	got, err := NewCachedStore(inner, redisClient, time.Minute, &TestLogger{t}).Query(context.Background(), "b-tree", "CSCE 5310", 15)

	require.NoError(t, err)
	assert.Equal(t, chunks, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_DisabledWithZeroTTL(t *testing.T) {
	mr, rdb := setupRedis(t)
	inner := &countingStore{chunks: []models.EvidenceChunk{{Content: "x"}}}
	s := NewCachedStore(inner, rdb, 0, &TestLogger{t})

	_, _ = s.Query(context.Background(), "q", "c", 15)
	_, _ = s.Query(context.Background(), "q", "c", 15)

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, mr.Keys())
}
