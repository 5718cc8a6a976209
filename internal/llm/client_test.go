package llm

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

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("[INFO] %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("[WARN] %s %v", msg, fields)
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
	})
	return string(body)
}

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	return New(Config{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxRetries:  retries,
	}, &TestLogger{t})
}

func TestComplete_SendsMessagesAndReturnsContent(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("  hello there  "))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 0)
	out, err := client.Complete(context.Background(), "be brief", "hi", Temperature(0.7), JSONObject())
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.InDelta(t, 0.7, captured["temperature"], 0.0001)
	msgs := captured["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "hi", msgs[1].(map[string]interface{})["content"])
	format := captured["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", format["type"])
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream","type":"server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("ok"))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 3).Complete(context.Background(), "s", "u", JSONObject())
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestComplete_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMRequestFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComplete_DeadlineMapsToTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv, 2).Complete(ctx, "s", "u")
	assert.ErrorIs(t, err, ErrLLMTimeout)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestSalvageObject(t *testing.T) {
	raw := "Sure! Here you go:\n{\"flashcards\": [{\"question\": \"q\"}]}\nHope that helps."
	got, ok := SalvageObject(raw, "flashcards")
	require.True(t, ok)
	assert.Equal(t, `{"flashcards": [{"question": "q"}]}`, got)

	_, ok = SalvageObject("no json at all", "flashcards")
	assert.False(t, ok)
}
