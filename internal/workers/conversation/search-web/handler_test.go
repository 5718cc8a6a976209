// internal/workers/conversation/search-web/handler_test.go
package searchweb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"prism-workers/internal/search/tavily"
	"prism-workers/internal/search/websearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, DefaultCount: 3}
}

func newFakeTavily(t *testing.T, calls *int32, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		t.Logf("tavily request: %v", req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createTestHandler(t *testing.T, baseURL, apiKey string) *Handler {
	log := &TestLogger{t}
	client := tavily.New(tavily.Config{BaseURL: baseURL, APIKey: apiKey, Timeout: time.Second})
	return NewHandler(createTestConfig(), websearch.New(client, time.Minute, log), log)
}

func TestHandler_Execute_Success(t *testing.T) {
	var calls int32
	srv := newFakeTavily(t, &calls, http.StatusOK, `{
		"answer": "A clustered index orders the table rows.",
		"results": [
			{"title": "Indexes 101", "url": "https://db.example/indexes", "content": "Clustered vs non-clustered.", "score": 0.8},
			{"title": "Storage", "url": "https://db.example/storage", "content": "Heap files.", "score": 0.6}
		]
	}`)
	h := createTestHandler(t, srv.URL, "tvly-key")

	out, err := h.Execute(context.Background(), &Input{Query: "clustered index", Course: "CSCE 5350"})
	require.NoError(t, err)

	assert.Empty(t, out.SearchError)
	assert.False(t, out.TimeSensitive)
	require.Len(t, out.RawResults, 3)
	assert.True(t, out.RawResults[0].IsAnswer())
	assert.Len(t, out.Citations, 2)
	assert.Contains(t, out.Results, "[1] Indexes 101")

	_, err = h.Execute(context.Background(), &Input{Query: "clustered index", Course: "CSCE 5350"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second identical search is served from cache")
}

func TestHandler_Execute_ProviderFailuresAreMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"auth", http.StatusUnauthorized, `{"detail":{"error":"invalid key"}}`, websearch.AuthFailedMessage},
		{"rate limit", http.StatusTooManyRequests, `{}`, websearch.RateLimitedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newFakeTavily(t, &calls, tt.status, tt.body)

			out, err := createTestHandler(t, srv.URL, "tvly-key").Execute(context.Background(), &Input{Query: "q", Course: "c"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Results)
			assert.NotEmpty(t, out.SearchError)
			assert.NotNil(t, out.Citations)
		})
	}
}

func TestHandler_Execute_MissingAPIKey(t *testing.T) {
	out, err := createTestHandler(t, "http://127.0.0.1:1", "").Execute(context.Background(), &Input{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, websearch.NotConfiguredMessage, out.Results)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t, "http://127.0.0.1:1", "k")

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = h.Execute(context.Background(), &Input{Query: "q", NumResults: 40})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
