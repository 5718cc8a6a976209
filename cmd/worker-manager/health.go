// cmd/worker-manager/health.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type healthServer struct {
	srv    *http.Server
	log    *zap.Logger
	checks map[string]pinger
}

func newHealthServer(port string, log *zap.Logger, postgres, redis pinger, es interface{ Ping() error }) *healthServer {
	h := &healthServer{
		log: log,
		checks: map[string]pinger{
			"postgres":      postgres,
			"redis":         redis,
			"elasticsearch": pingFunc(func(context.Context) error { return es.Ping() }),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ready", h.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	h.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

func (h *healthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *healthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().Format(time.RFC3339),
	})
}

func (h *healthServer) run() {
	h.log.Info("Health/Metrics server listening", zap.String("addr", h.srv.Addr))
	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.log.Error("Health/Metrics server failed", zap.Error(err))
	}
}

func (h *healthServer) shutdown(ctx context.Context) {
	if err := h.srv.Shutdown(ctx); err != nil {
		h.log.Error("Health/Metrics server shutdown", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
