package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeConfirmed = "confirmed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"

	SearchOutcomeOK    = "ok"
	SearchOutcomeError = "error"
	SearchOutcomeStale = "stale"
	SearchOutcomeBlank = "blank"
)

// RegisterMetrics records checkout, search and upstream activity for one register.
type RegisterMetrics struct {
	submissions      *prometheus.CounterVec
	submitDuration   prometheus.Histogram
	validationErrors *prometheus.CounterVec
	searches         *prometheus.CounterVec
	upstream         *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
}

// NewRegisterMetrics registers the register metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewRegisterMetrics(reg prometheus.Registerer) *RegisterMetrics {
	if reg == nil {
		return &RegisterMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kasir_checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kasir_checkout_submit_duration_seconds",
		Help:    "Duration of transaction submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	validationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kasir_checkout_validation_rejections_total",
		Help: "Checkout attempts rejected locally before any network call.",
	}, []string{"reason"})
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kasir_search_lookups_total",
		Help: "Debounced catalog lookups by outcome.",
	}, []string{"outcome"})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kasir_upstream_request_duration_seconds",
		Help:    "Duration of calls to the store backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kasir_upstream_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"breaker"})
	reg.MustRegister(submissions, submitDuration, validationErrors, searches, upstream, breakerState)
	return &RegisterMetrics{
		submissions:      submissions,
		submitDuration:   submitDuration,
		validationErrors: validationErrors,
		searches:         searches,
		upstream:         upstream,
		breakerState:     breakerState,
	}
}

// ObserveSubmission records a finished submission and its duration.
func (m *RegisterMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.submitDuration.Observe(duration.Seconds())
}

// IncValidationRejection counts a checkout stopped by local validation.
func (m *RegisterMetrics) IncValidationRejection(reason string) {
	if m == nil || m.validationErrors == nil {
		return
	}
	m.validationErrors.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncSearch counts a debounced lookup.
func (m *RegisterMetrics) IncSearch(outcome string) {
	if m == nil || m.searches == nil {
		return
	}
	m.searches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveUpstream records the latency of a backend call.
func (m *RegisterMetrics) ObserveUpstream(method, status string, duration time.Duration) {
	if m == nil || m.upstream == nil {
		return
	}
	m.upstream.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Observe(duration.Seconds())
}

// SetBreakerState publishes the numeric breaker state.
func (m *RegisterMetrics) SetBreakerState(name string, state int) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.WithLabelValues(normalizeLabel(name)).Set(float64(state))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
