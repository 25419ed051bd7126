package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumithjaya/biometric-auth-backend/internal/audit"
	"github.com/sumithjaya/biometric-auth-backend/internal/platform/middleware"
	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
	"github.com/sumithjaya/biometric-auth-backend/pkg/platform/httputil"
)

// Service defines the audit read operations the handler needs.
type Service interface {
	List(ctx context.Context, userID string) ([]audit.Event, error)
}

// Handler serves the audit trail read endpoint. Operators use it to see why
// a verification failed without the failure cause ever reaching the kiosk.
type Handler struct {
	logger       *slog.Logger
	trail        Service
	jwtValidator middleware.JWTValidator
}

// New creates an audit Handler. A nil validator leaves the route open, which
// only test setups use.
func New(trail Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		trail:        trail,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the audit routes on the chi router. The trail names
// enrollees, so every route requires a session token.
func (h *Handler) Register(r chi.Router) {
	ar := chi.NewRouter()
	ar.Use(middleware.Recovery(h.logger))
	ar.Use(middleware.RequestID)
	ar.Use(middleware.Logger(h.logger))
	ar.Use(middleware.Timeout(10 * time.Second))
	if h.jwtValidator != nil {
		ar.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	}
	ar.Get("/events/{userId}", h.handleListEvents)

	r.Mount("/audit", ar)
}

// eventResponse is the operator view of a stored event.
type eventResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId is required"))
		return
	}

	if operator := middleware.GetEmployeeID(ctx); operator != "" {
		h.logger.InfoContext(ctx, "audit trail lookup",
			"user_id", userID,
			"operator", operator,
			"request_id", middleware.GetRequestID(ctx),
		)
	}

	events, err := h.trail.List(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = eventResponse{
			ID:        ev.ID.String(),
			Action:    string(ev.Action),
			UserID:    ev.UserID,
			Email:     ev.Email,
			RequestID: ev.RequestID,
			Reason:    ev.Reason,
			CreatedAt: ev.CreatedAt,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
