package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/match"
	"github.com/sumithjaya/biometric-auth-backend/internal/biometric/models"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/httputil"
)

// Service defines the biometric operations the handler needs.
type Service interface {
	Enroll(ctx context.Context, req models.EnrollRequest) (models.EnrollResult, error)
	Verify(ctx context.Context, req models.VerifyRequest) (match.Result, error)
	LookupByUserID(ctx context.Context, userID string) (*models.EnrollmentRecord, error)
}

// Handler serves the enrollment and verification endpoints.
type Handler struct {
	logger       *slog.Logger
	biometric    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a biometric Handler. jwtValidator guards the lookup route; a
// nil validator leaves it open, which only test setups use.
func New(biometric Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		biometric:    biometric,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the biometric routes on the chi router. Enroll and verify
// are open: the kiosk calls them before any session exists. The lookup route
// exposes enrollee details and requires a session token.
func (h *Handler) Register(r chi.Router) {
	br := chi.NewRouter()
	br.Use(middleware.Recovery(h.logger))
	br.Use(middleware.RequestID)
	br.Use(middleware.Logger(h.logger))
	br.Use(middleware.Timeout(30 * time.Second))
	br.Use(middleware.ContentTypeJSON)
	br.Use(middleware.LatencyMiddleware(h.metrics))
	br.Post("/enroll", h.handleEnroll)
	br.Post("/verify", h.handleVerify)
	br.Group(func(gr chi.Router) {
		if h.jwtValidator != nil {
			gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		}
		gr.Get("/enrollments/{userId}", h.handleGetEnrollment)
	})

	r.Mount("/biometrics", br)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid enroll request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.biometric.Enroll(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "enrollment failed",
			"request_id", requestID,
			"user_id", req.UserID,
			"error", err.Error(),
		)
		// WriteError keeps the service's status code and suppresses detail
		// for internal and unavailable errors.
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid verify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.biometric.Verify(ctx, req)
	if err != nil {
		switch {
		case dErrors.Is(err, dErrors.CodeValidation), dErrors.Is(err, dErrors.CodeNotFound):
			httputil.WriteError(w, err)
		default:
			h.logger.ErrorContext(ctx, "verification failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// enrollmentResponse is the lookup view of a record. Ciphertext and nonce
// stay server-side.
type enrollmentResponse struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	SnapshotPath string    `json:"snapshotPath,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (h *Handler) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId is required"))
		return
	}

	if operator := middleware.GetEmployeeID(ctx); operator != "" {
		h.logger.InfoContext(ctx, "enrollment lookup",
			"user_id", userID,
			"operator", operator,
			"request_id", middleware.GetRequestID(ctx),
		)
	}

	rec, err := h.biometric.LookupByUserID(ctx, userID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "enrollment lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, enrollmentResponse{
		UserID:       rec.UserID,
		Name:         rec.Name,
		Email:        rec.Email,
		SnapshotPath: rec.SnapshotPath,
		UpdatedAt:    rec.UpdatedAt,
	})
}
