package tavily

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SendsRequestAndDecodes(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"query": "raft consensus CSCE 5350",
			"answer": "Raft is a consensus algorithm.",
			"results": [
				{"title": "Raft", "url": "https://raft.github.io", "content": "Raft is...", "score": 0.91},
				{"title": "Paper", "url": "https://example.edu/raft.pdf", "content": "In Search of...", "score": 0.72}
			],
			"response_time": 0.8
		}`)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/", APIKey: "tvly-test", Timeout: time.Second})
	resp, err := client.Search(context.Background(), Request{
		Query:         "raft consensus CSCE 5350",
		MaxResults:    5,
		IncludeAnswer: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "tvly-test", got["api_key"])
	assert.Equal(t, "basic", got["search_depth"])
	assert.Equal(t, float64(5), got["max_results"])
	assert.Equal(t, true, got["include_answer"])

	assert.Equal(t, "Raft is a consensus algorithm.", resp.Answer)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "https://raft.github.io", resp.Results[0].URL)
	assert.InDelta(t, 0.91, resp.Results[0].Score, 1e-9)
}

func TestSearch_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`, ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, `{"detail":{"error":"rate limit exceeded"}}`, ErrRateLimited},
		{"plan quota", 432, `{}`, ErrRateLimited},
		{"bad request", http.StatusBadRequest, `{"detail":{"error":"query is too long"}}`, ErrFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), Request{Query: "q"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"results": []}`)
	}))
	defer srv.Close()

	resp, err := New(Config{BaseURL: srv.URL, APIKey: "k", MaxRetries: 2}).Search(context.Background(), Request{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(ctx, Request{Query: "q"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSearch_NotConfigured(t *testing.T) {
	client := New(Config{})
	assert.False(t, client.Configured())

	_, err := client.Search(context.Background(), Request{Query: "q"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
