package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumithjaya/biometric-auth-backend/internal/employee/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/httputil"
)

// Service defines the authentication operations the handler needs.
type Service interface {
	Authenticate(ctx context.Context, req models.AuthRequest) (models.AuthResult, error)
}

// Handler serves the PIN login endpoint.
type Handler struct {
	logger  *slog.Logger
	auth    Service
	metrics *metrics.Metrics
}

// New creates an auth Handler.
func New(auth Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		auth:    auth,
		metrics: metrics,
	}
}

// Register mounts the auth routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	ar := chi.NewRouter()
	ar.Use(middleware.Recovery(h.logger))
	ar.Use(middleware.RequestID)
	ar.Use(middleware.Logger(h.logger))
	ar.Use(middleware.Timeout(10 * time.Second))
	ar.Use(middleware.ContentTypeJSON)
	ar.Use(middleware.LatencyMiddleware(h.metrics))
	ar.Post("/pin", h.handlePinAuth)

	r.Mount("/auth", ar)
}

func (h *Handler) handlePinAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Authenticate(ctx, req)
	if err != nil {
		switch {
		case dErrors.Is(err, dErrors.CodeValidation),
			dErrors.Is(err, dErrors.CodeUnauthorized),
			dErrors.Is(err, dErrors.CodeLocked):
			httputil.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "pin authentication failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
