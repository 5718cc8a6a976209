// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"prism-workers/internal/catalog"
	"prism-workers/internal/clarification"
	"prism-workers/internal/common/camunda"
	"prism-workers/internal/common/config"
	"prism-workers/internal/common/database"
	"prism-workers/internal/common/logger"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/llm"
	"prism-workers/internal/retrieval/answer"
	"prism-workers/internal/retrieval/classifier"
	"prism-workers/internal/retrieval/curator"
	"prism-workers/internal/retrieval/flashcards"
	"prism-workers/internal/retrieval/store"
	"prism-workers/internal/search/tavily"
	"prism-workers/internal/search/websearch"
	"prism-workers/pkg/registry"

	rq "prism-workers/internal/workers/conversation/resolve-query"
	sw "prism-workers/internal/workers/conversation/search-web"
	ce "prism-workers/internal/workers/retrieval/curate-evidence"
	gf "prism-workers/internal/workers/retrieval/generate-flashcards"
	rs "prism-workers/internal/workers/session/reset-session"
	ss "prism-workers/internal/workers/session/start-session"
)

type services struct {
	courses    *catalog.Courses
	sessions   *clarification.SessionStore
	curator    *curator.Curator
	flashcards *flashcards.Generator
	machine    *clarification.Machine
	web        *websearch.Service
}

func buildServices(cfg *config.Config, pg *database.PostgresClient, es *database.ElasticsearchClient, rdb *database.RedisClient, log logger.Logger) *services {
	var evidence store.EvidenceStore = store.NewElasticsearchStore(es.Client, cfg.Retrieval.Index, log)
	if cfg.Retrieval.CacheTTL > 0 {
		evidence = store.NewCachedStore(evidence, rdb.Client, time.Duration(cfg.Retrieval.CacheTTL)*time.Second, log)
	}

	cls := classifier.Default(classifier.Thresholds{
		MaxCitationMarkers: cfg.Classifier.MaxCitationMarkers,
		MaxLinks:           cfg.Classifier.MaxLinks,
		ShortPassageLength: cfg.Classifier.ShortPassageLength,
	})
	log.Info("evidence classifier ready", map[string]interface{}{"rules": cls.Rules()})
	cur := curator.New(evidence, cls, curator.Config{
		TopK:              cfg.Retrieval.TopK,
		MinResults:        cfg.Retrieval.MinResults,
		MaxCandidates:     cfg.Retrieval.MaxCandidates,
		FingerprintLength: cfg.Retrieval.FingerprintLength,
	}, log)

	model := llm.New(llm.Config{
		BaseURL:     cfg.APIs.LLM.BaseURL,
		APIKey:      cfg.APIs.LLM.APIKey,
		Model:       cfg.APIs.LLM.Model,
		Temperature: cfg.APIs.LLM.Temperature,
		MaxRetries:  3,
		Timeout:     config.GetDuration(cfg.APIs.LLM.Timeout),
	}, log)

	answerer := answer.New(cur, model, cfg.APIs.LLM.Temperature, log)

	search := tavily.New(tavily.Config{
		BaseURL:    cfg.APIs.WebSearch.BaseURL,
		APIKey:     cfg.APIs.WebSearch.APIKey,
		Timeout:    config.GetDuration(cfg.APIs.WebSearch.Timeout),
		MaxRetries: cfg.APIs.WebSearch.MaxRetries,
	})

	return &services{
		courses:    catalog.NewCourses(pg.DB),
		sessions:   clarification.NewSessionStore(rdb.Client, time.Duration(cfg.Session.TTL)*time.Second),
		curator:    cur,
		flashcards: flashcards.New(cur, model, cfg.APIs.LLM.Temperature, log),
		machine:    clarification.NewMachine(clarification.NewLLMClassifier(model), answerer, log),
		web:        websearch.New(search, time.Duration(cfg.APIs.WebSearch.CacheTTL)*time.Second, log),
	}
}

func registerWorkers(cfg *config.Config, svc *services, reg *registry.ActivityRegistry, workers *camunda.Workers, client camunda.JobWorkerBuilder, log logger.Logger, zapLog *zap.Logger) {
	start := func(taskType string, h camunda.HandlerFunc) {
		if reg != nil {
			if _, ok := reg.Find(taskType); !ok {
				zapLog.Warn("task type missing from activity registry", zap.String("taskType", taskType))
			}
		}
		workers.Start(client, taskType, config.GetWorkerConfig(cfg, taskType), gated(reg, taskType, h, log))
	}

	if config.IsWorkerEnabled(cfg, ss.TaskType) {
		h := ss.NewHandler(&ss.Config{Timeout: jobTimeout(cfg, reg, ss.TaskType)}, svc.courses, svc.sessions, log)
		start(ss.TaskType, h.Handle)
	}

	if config.IsWorkerEnabled(cfg, rs.TaskType) {
		h := rs.NewHandler(&rs.Config{Timeout: jobTimeout(cfg, reg, rs.TaskType)}, svc.sessions, log)
		start(rs.TaskType, h.Handle)
	}

	if config.IsWorkerEnabled(cfg, ce.TaskType) {
		h := ce.NewHandler(&ce.Config{
			Timeout:       jobTimeout(cfg, reg, ce.TaskType),
			MaxCandidates: cfg.Retrieval.MaxCandidates,
		}, svc.curator, log)
		start(ce.TaskType, h.Handle)
	}

	if config.IsWorkerEnabled(cfg, gf.TaskType) {
		gcfg := gf.LoadConfig()
		gcfg.Timeout = jobTimeout(cfg, reg, gf.TaskType)
		h := gf.NewHandler(gcfg, svc.flashcards, log)
		start(gf.TaskType, h.Handle)
	}

	if config.IsWorkerEnabled(cfg, rq.TaskType) {
		h := rq.NewHandler(&rq.Config{
			Timeout:    jobTimeout(cfg, reg, rq.TaskType),
			MaxRetries: config.GetWorkerConfig(cfg, rq.TaskType).MaxRetries,
		}, svc.sessions, svc.machine, &resolveQueryLoggerAdapter{log})
		start(rq.TaskType, h.Handle)
	}

	if config.IsWorkerEnabled(cfg, sw.TaskType) {
		scfg := sw.LoadConfig()
		scfg.Timeout = jobTimeout(cfg, reg, sw.TaskType)
		h := sw.NewHandler(scfg, svc.web, &searchWebLoggerAdapter{log})
		start(sw.TaskType, h.Handle)
	}
}

// jobTimeout prefers the worker config, then the registry entry.
func jobTimeout(cfg *config.Config, reg *registry.ActivityRegistry, taskType string) time.Duration {
	if w, ok := cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	if reg != nil {
		if a, ok := reg.Find(taskType); ok {
			return a.TimeoutOr(30 * time.Second)
		}
	}
	return 30 * time.Second
}

// gated rejects jobs whose variables do not match the registry's input
// schema before the handler sees them.
func gated(reg *registry.ActivityRegistry, taskType string, h camunda.HandlerFunc, log logger.Logger) camunda.HandlerFunc {
	if reg == nil {
		return h
	}
	activity, ok := reg.Find(taskType)
	if !ok {
		return h
	}
	return func(client worker.JobClient, job entities.Job) {
		if err := activity.ValidateInput(job.Variables); err != nil {
			log.Warn("job rejected by input schema", map[string]interface{}{
				"taskType": taskType,
				"jobKey":   job.Key,
				"error":    err.Error(),
			})
			metrics.WorkerJobsFailed.WithLabelValues(taskType, "INVALID_INPUT").Inc()
			if _, sendErr := client.NewThrowErrorCommand().
				JobKey(job.Key).
				ErrorCode("INVALID_INPUT").
				ErrorMessage(err.Error()).
				Send(context.Background()); sendErr != nil {
				log.Error("failed to throw error", map[string]interface{}{"error": sendErr.Error()})
			}
			return
		}
		h(client, job)
	}
}

// Logger adapters for workers that declare their own Logger interfaces
type resolveQueryLoggerAdapter struct {
	logger.Logger
}

func (a *resolveQueryLoggerAdapter) With(fields map[string]interface{}) rq.Logger {
	return &resolveQueryLoggerAdapter{a.Logger.With(fields)}
}

type searchWebLoggerAdapter struct {
	logger.Logger
}

func (a *searchWebLoggerAdapter) With(fields map[string]interface{}) sw.Logger {
	return &searchWebLoggerAdapter{a.Logger.With(fields)}
}
