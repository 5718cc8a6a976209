// internal/workers/retrieval/curate-evidence/handler.go
package curateevidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prism-workers/internal/common/logger"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/curator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "curate-evidence"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

type Curator interface {
	Curate(ctx context.Context, req curator.Request) curator.Result
}

type Handler struct {
	config  *Config
	curator Curator
	logger  logger.Logger
}

func NewHandler(config *Config, c Curator, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		curator: c,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, ErrInvalidInput.Error(), err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.Struct(input); !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Error())
	}

	exclude := make(map[string]struct{}, len(input.ExcludeIDs))
	for _, id := range input.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	maxCandidates := input.MaxCandidates
	if maxCandidates == 0 {
		maxCandidates = h.config.MaxCandidates
	}

	res := h.curator.Curate(ctx, curator.Request{
		Topic:         input.Topic,
		Course:        input.Course,
		ExcludeIDs:    exclude,
		MaxCandidates: maxCandidates,
	})

	out := &Output{
		Evidence:  res.Evidence,
		Exhausted: res.Exhausted,
		Message:   res.Message,
		Context:   res.Context,
		Citations: res.Citations,
		Outcome:   res.Outcome,
		Error:     res.Error,
	}
	if out.Evidence == nil {
		out.Evidence = []models.EvidenceChunk{}
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
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
