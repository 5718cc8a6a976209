package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticPing struct{ err error }

func (s staticPing) Ping() error { return s.err }

func okPing(context.Context) error { return nil }

func TestHealthServer_Ready(t *testing.T) {
	tests := []struct {
		name       string
		redisErr   error
		esErr      error
		wantStatus int
		wantState  string
	}{
		{name: "all up", wantStatus: http.StatusOK, wantState: "ready"},
		{name: "redis down", redisErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
		{name: "elasticsearch down", esErr: errors.New("503"), wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redisErr := tt.redisErr
			h := newHealthServer("0", zaptest.NewLogger(t),
				pingFunc(okPing),
				pingFunc(func(context.Context) error { return redisErr }),
				staticPing{err: tt.esErr},
			)

			rec := httptest.NewRecorder()
			h.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status       string            `json:"status"`
				Dependencies map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Len(t, body.Dependencies, 3)
			assert.Equal(t, "ok", body.Dependencies["postgres"])
		})
	}
}

func TestHealthServer_HealthAndMetrics(t *testing.T) {
	h := newHealthServer("0", zaptest.NewLogger(t), pingFunc(okPing), pingFunc(okPing), staticPing{})

	rec := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
