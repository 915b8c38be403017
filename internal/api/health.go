package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

const readinessTimeout = 2 * time.Second

// health is a simple health check endpoint for Docker/Kubernetes probes.
// Returns 200 OK with {"status":"ok"}.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness reports whether the server can reach its database. A nil pool
// degrades to a plain liveness check.
func readiness(pool *pgxpool.Pool, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, "not_ready", "database unavailable", logger)
			return
		}

		stats := pool.Stat()
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"total_connections": stats.TotalConns(),
			"idle_connections":  stats.IdleConns(),
		}, logger)
	}
}
