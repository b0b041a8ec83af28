package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assistant-workers/internal/common/camunda"
	"assistant-workers/internal/common/database"
)

type zeebePinger struct {
	client  zbc.Client
	timeout time.Duration
}

func (z zeebePinger) Ping(ctx context.Context) error {
	return camunda.HealthCheck(ctx, z.client, z.timeout)
}

// newServeMux serves liveness, readiness over deps, and Prometheus metrics.
func newServeMux(deps map[string]database.Pinger, readyTimeout time.Duration) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		failed := database.CheckAll(r.Context(), readyTimeout, deps)
		if len(failed) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"failed": failed,
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
