// internal/workers/session/reset-session/handler_test.go
package resetsession

import (
	"context"
	"testing"
	"time"

	"prism-workers/internal/clarification"
	commonerrors "prism-workers/internal/common/errors"
	"prism-workers/internal/common/logger"
	"prism-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) (*Handler, *miniredis.Miniredis, *clarification.SessionStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := clarification.NewSessionStore(rdb, time.Hour)
	return NewHandler(&Config{Timeout: 5 * time.Second}, sessions, logger.NewTestLogger(t)), mr, sessions
}

func awaitingSession(id string) *models.Session {
	return &models.Session{
		ID:     id,
		Course: "CSCE 5350",
		Clarification: models.ClarificationState{
			OriginalQuery:      "explain it",
			AccumulatedContext: []string{"explain it"},
			FollowUpQuestions:  []string{"Which part?"},
			NeedsFollowUp:      true,
		},
	}
}

func TestHandler_Execute_ResetsClarification(t *testing.T) {
	h, _, sessions := createTestHandler(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, awaitingSession("sess-1")))

	out, err := h.Execute(ctx, &Input{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.False(t, out.Dropped)
	assert.Equal(t, models.ModeDirect, out.Mode)

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.ClarificationState{}, sess.Clarification)
	assert.Equal(t, "CSCE 5350", sess.Course)
}

func TestHandler_Execute_Drop(t *testing.T) {
	h, mr, sessions := createTestHandler(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, awaitingSession("sess-1")))

	out, err := h.Execute(ctx, &Input{SessionID: "sess-1", Drop: true})
	require.NoError(t, err)
	assert.True(t, out.Dropped)
	assert.False(t, mr.Exists(clarification.SessionKey("sess-1")))
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		closeMR  bool
		wantCode commonerrors.ErrorCode
	}{
		{name: "missing id", input: &Input{}, wantCode: commonerrors.ErrCodeInvalidInput},
		{name: "unknown session", input: &Input{SessionID: "ghost"}, wantCode: commonerrors.ErrCodeSessionNotFound},
		{name: "drop unknown session", input: &Input{SessionID: "ghost", Drop: true}, wantCode: commonerrors.ErrCodeSessionNotFound},
		{name: "redis down", input: &Input{SessionID: "sess-1"}, closeMR: true, wantCode: commonerrors.ErrCodeSessionStoreFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mr, _ := createTestHandler(t)
			if tt.closeMR {
				mr.Close()
			}
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, commonerrors.Normalize(err).Code)
		})
	}
}
