package camunda

import (
	"context"
	"time"

	"prism-workers/internal/common/config"
	"prism-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

type HandlerFunc func(client worker.JobClient, job entities.Job)

// Tracer opens one span per job; observability.Observability satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, taskType string, jobKey int64) (context.Context, func(err error))
}

// Instrument wraps h with the active-jobs gauge, the duration histogram
// and a job span.
func Instrument(taskType string, tracer Tracer, h HandlerFunc) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		if tracer != nil {
			_, end := tracer.StartSpan(context.Background(), taskType, job.Key)
			defer end(nil)
		}

		h(client, job)

		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	}
}

// Workers tracks the open job workers so they can be closed on shutdown.
type Workers struct {
	open   []worker.JobWorker
	logger *zap.Logger
	tracer Tracer
}

func NewWorkers(logger *zap.Logger, tracer Tracer) *Workers {
	return &Workers{logger: logger, tracer: tracer}
}

// JobWorkerBuilder is the subset of zbc.Client used to open workers.
type JobWorkerBuilder interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

func (w *Workers) Start(client JobWorkerBuilder, taskType string, wcfg config.WorkerConfig, h HandlerFunc) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, w.tracer, h))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	w.open = append(w.open, jw)

	w.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

func (w *Workers) Count() int {
	return len(w.open)
}

func (w *Workers) Close() {
	for _, jw := range w.open {
		jw.Close()
	}
	w.open = nil
}
