package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumithjaya/biometric-auth-backend/internal/platform/metrics"
)

// LatencyMiddleware records per-route request latency. Routes are labeled by
// chi pattern, not raw path, to keep label cardinality bounded.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			m.RequestDuration.WithLabelValues(path).
				Observe(float64(time.Since(start).Microseconds()) / 1000.0)
		})
	}
}
