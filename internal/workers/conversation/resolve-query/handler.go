// internal/workers/conversation/resolve-query/handler.go
package resolvequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prism-workers/internal/clarification"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-query"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrSessionNotFound    = errors.New("SESSION_NOT_FOUND")
	ErrSessionStoreFailed = errors.New("SESSION_STORE_FAILED")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
}

type Stepper interface {
	Step(ctx context.Context, state *models.ClarificationState, utterance, course string) (clarification.Reply, error)
}

type Handler struct {
	config   *Config
	sessions SessionStore
	machine  Stepper
	logger   Logger
}

func NewHandler(config *Config, sessions SessionStore, machine Stepper, log Logger) *Handler {
	return &Handler{
		config:   config,
		sessions: sessions,
		machine:  machine,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrSessionStoreFailed) {
			retries = int32(h.config.MaxRetries)
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.Struct(input); !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Error())
	}

	sess, err := h.sessions.Get(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, clarification.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, input.SessionID)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}

	from := sess.Clarification.Mode()
	reply, err := h.machine.Step(ctx, &sess.Clarification, input.Query, sess.Course)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}

	h.logger.Info("query resolved", map[string]interface{}{
		"sessionId": sess.ID,
		"from":      string(from),
		"to":        string(reply.Mode),
		"followUp":  reply.FollowUp,
	})

	out := &Output{
		SessionID:         sess.ID,
		Response:          reply.Text,
		NeedsFollowUp:     reply.FollowUp,
		FollowUpQuestions: reply.State.FollowUpQuestions,
		Mode:              reply.Mode,
		Citations:         reply.Citations,
	}
	if out.FollowUpQuestions == nil {
		out.FollowUpQuestions = []string{}
	}
	if out.Citations == nil {
		out.Citations = []models.DocumentCitation{}
	}
	return out, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	switch {
	case errors.Is(err, ErrInvalidInput):
		errorCode = ErrInvalidInput.Error()
	case errors.Is(err, ErrSessionNotFound):
		errorCode = ErrSessionNotFound.Error()
	case errors.Is(err, ErrSessionStoreFailed):
		errorCode = ErrSessionStoreFailed.Error()
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
		"retries":   retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	if retries > 0 {
		_, _ = client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(retries).
			ErrorMessage(err.Error()).
			Send(context.Background())
		return
	}

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
