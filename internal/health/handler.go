// Package health exposes liveness and dependency probes.
package health

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/httputil"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// Handler serves the health endpoints.
type Handler struct {
	logger    *slog.Logger
	db        *sql.DB
	redis     Pinger
	threshold float64
}

// New creates a health Handler. db and redis may be nil when the deployment
// runs on in-memory stores.
func New(logger *slog.Logger, db *sql.DB, redis Pinger, threshold float64) *Handler {
	return &Handler{
		logger:    logger,
		db:        db,
		redis:     redis,
		threshold: threshold,
	}
}

// Register mounts the health routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/health/db", h.handleHealthDB)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"threshold": h.threshold,
	})
}

func (h *Handler) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.ErrorContext(ctx, "database health check failed", "error", err.Error())
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "database unreachable"))
			return
		}
		checks["database"] = "ok"
	} else {
		checks["database"] = "in-memory"
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "redis health check failed", "error", err.Error())
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "redis unreachable"))
			return
		}
		checks["redis"] = "ok"
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"checks": checks,
	})
}
