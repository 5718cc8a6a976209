// internal/workers/retrieval/generate-flashcards/handler.go
package generateflashcards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prism-workers/internal/common/logger"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"
	"prism-workers/internal/retrieval/flashcards"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-flashcards"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

type Generator interface {
	Generate(ctx context.Context, req flashcards.Request) flashcards.Result
}

type Handler struct {
	config    *Config
	generator Generator
	logger    logger.Logger
}

func NewHandler(config *Config, g Generator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		generator: g,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	count := input.NumFlashcards
	if count == 0 {
		count = h.config.DefaultCount
	}
	if h.config.MaxCount > 0 && count > h.config.MaxCount {
		count = h.config.MaxCount
	}

	res := h.generator.Generate(ctx, flashcards.Request{
		Topic:    input.Topic,
		Course:   input.Course,
		Existing: input.ExistingFlashcards,
		Count:    count,
	})

	all := make([]models.Flashcard, 0, len(input.ExistingFlashcards)+len(res.Flashcards))
	all = append(all, input.ExistingFlashcards...)
	all = append(all, res.Flashcards...)

	out := &Output{
		Flashcards:    res.Flashcards,
		HasMore:       res.HasMore,
		Message:       res.Message,
		Citations:     res.Citations,
		AllFlashcards: all,
	}
	if out.Flashcards == nil {
		out.Flashcards = []models.Flashcard{}
	}
	if out.Citations == nil {
		out.Citations = []models.DocumentCitation{}
	}

	h.logger.Info("flashcard batch ready", map[string]interface{}{
		"topic":    input.Topic,
		"returned": len(out.Flashcards),
		"total":    len(all),
		"hasMore":  out.HasMore,
	})
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
