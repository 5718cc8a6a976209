// internal/workers/session/reset-session/handler.go
package resetsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prism-workers/internal/clarification"
	commonerrors "prism-workers/internal/common/errors"
	"prism-workers/internal/common/logger"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "reset-session"
)

type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	config     *Config
	sessions   SessionStore
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, sessions SessionStore, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		sessions:   sessions,
		errHandler: commonerrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.Struct(input); !res.Valid {
		return nil, commonerrors.NewInvalidInputError(res.Error())
	}

	if input.Drop {
		if err := h.sessions.Delete(ctx, input.SessionID); err != nil {
			return nil, storeError(input.SessionID, err)
		}
		h.logger.Info("session dropped", map[string]interface{}{"sessionId": input.SessionID})
		return &Output{SessionID: input.SessionID, Dropped: true, Mode: models.ModeDirect}, nil
	}

	sess, err := h.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return nil, storeError(input.SessionID, err)
	}
	previous := sess.Clarification.Mode()
	sess.Clarification.Reset()
	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, storeError(input.SessionID, err)
	}

	h.logger.Info("clarification reset", map[string]interface{}{
		"sessionId": sess.ID,
		"from":      string(previous),
	})
	return &Output{SessionID: sess.ID, Mode: sess.Clarification.Mode()}, nil
}

func storeError(sessionID string, err error) error {
	switch {
	case errors.Is(err, clarification.ErrSessionNotFound):
		return commonerrors.NewSessionNotFoundError(sessionID)
	case errors.Is(err, clarification.ErrSessionStoreFailed):
		return commonerrors.NewSessionStoreFailedError(err)
	}
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
