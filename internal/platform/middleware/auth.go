package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating session tokens issued
// after a successful PIN check.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	EmployeeID string
	Name       string
}

// Context keys for storing authenticated employee information.
type contextKeyEmployeeID struct{}
type contextKeyEmployeeName struct{}

// GetEmployeeID retrieves the authenticated employee ID from the context.
func GetEmployeeID(ctx context.Context) string {
	id, ok := ctx.Value(contextKeyEmployeeID{}).(string)
	if !ok {
		return ""
	}
	return id
}

// WithEmployeeID injects an employee ID into a context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithEmployeeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyEmployeeID{}, id)
}

// GetEmployeeName retrieves the authenticated employee name from the context.
func GetEmployeeName(ctx context.Context) string {
	name, ok := ctx.Value(contextKeyEmployeeName{}).(string)
	if !ok {
		return ""
	}
	return name
}

// RequireAuth rejects requests without a valid Bearer session token.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, contextKeyEmployeeID{}, claims.EmployeeID)
			ctx = context.WithValue(ctx, contextKeyEmployeeName{}, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
