// internal/workers/conversation/search-web/handler.go
package searchweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"
	"prism-workers/internal/search/websearch"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "search-web"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Searcher interface {
	Search(ctx context.Context, query, course string, count int) websearch.Result
}

type Handler struct {
	config   *Config
	searcher Searcher
	logger   Logger
}

func NewHandler(config *Config, s Searcher, log Logger) *Handler {
	return &Handler{
		config:   config,
		searcher: s,
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
		h.failJob(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute only fails on bad input. Provider failures are reported to the
// student in Results.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.Struct(input); !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Error())
	}

	count := input.NumResults
	if count == 0 {
		count = h.config.DefaultCount
	}

	res := h.searcher.Search(ctx, input.Query, input.Course, count)

	out := &Output{
		Results:       res.Text,
		Citations:     res.Citations,
		RawResults:    res.Ranked,
		TimeSensitive: res.TimeSensitive,
		SearchError:   res.Error,
	}
	if out.Citations == nil {
		out.Citations = []models.WebCitation{}
	}
	if out.RawResults == nil {
		out.RawResults = []models.SearchResult{}
	}

	h.logger.Info("web search completed", map[string]interface{}{
		"results":       len(out.RawResults),
		"timeSensitive": out.TimeSensitive,
		"failed":        out.SearchError != "",
	})
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": ErrInvalidInput.Error(),
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, ErrInvalidInput.Error()).Inc()

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(ErrInvalidInput.Error()).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
