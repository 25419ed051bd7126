package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	EnrollmentsCreated prometheus.Counter
	EnrollmentsUpdated prometheus.Counter
	Verifications      *prometheus.CounterVec
	VerifyDistance     prometheus.Histogram
	PinAuthFailures    prometheus.Counter
	PinLockouts        prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EnrollmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biometric_enrollments_created_total",
			Help: "Total number of first-time enrollments",
		}),
		EnrollmentsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biometric_enrollments_updated_total",
			Help: "Total number of enrollments that overwrote an existing record",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "biometric_verifications_total",
			Help: "Total number of verification attempts by outcome",
		}, []string{"outcome"}),
		VerifyDistance: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "biometric_verify_distance",
			Help:    "Distribution of descriptor distances observed during verification",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.5, 2.0},
		}),
		PinAuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biometric_pin_auth_failures_total",
			Help: "Total number of failed PIN authentication attempts",
		}),
		PinLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "biometric_pin_lockouts_total",
			Help: "Total number of PIN lockouts applied",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biometric_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"path"}),
	}
}

// Verification outcome labels.
const (
	OutcomeMatched    = "matched"
	OutcomeRejected   = "rejected"
	OutcomeNotFound   = "not_found"
	OutcomeAuthFailed = "auth_failed"
)

// IncrementVerification records a verification attempt outcome.
func (m *Metrics) IncrementVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveDistance records a computed match distance.
func (m *Metrics) ObserveDistance(distance float64) {
	m.VerifyDistance.Observe(distance)
}
