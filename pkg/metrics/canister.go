package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded by CanisterMetrics.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport"
)

// CanisterMetrics records collaborator call latency and outcomes.
type CanisterMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewCanisterMetrics registers the collaborator metrics on the provided registerer.
func NewCanisterMetrics(reg prometheus.Registerer) *CanisterMetrics {
	if reg == nil {
		return &CanisterMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "canister_call_duration_seconds",
		Help:    "Duration of collaborator canister calls in seconds, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"canister", "method"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canister_calls_total",
		Help: "Collaborator canister calls by outcome.",
	}, []string{"canister", "method", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canister_call_retries_total",
		Help: "Collaborator canister calls retried after a transport failure.",
	}, []string{"canister", "method"})
	reg.MustRegister(duration, calls, retries)
	return &CanisterMetrics{
		duration: duration,
		calls:    calls,
		retries:  retries,
	}
}

// ObserveCall records the duration and outcome of one logical call.
func (c *CanisterMetrics) ObserveCall(canister, method, outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(canister), normalizeLabel(method)).Observe(duration.Seconds())
	c.calls.WithLabelValues(normalizeLabel(canister), normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// IncRetry counts a retried attempt.
func (c *CanisterMetrics) IncRetry(canister, method string) {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.WithLabelValues(normalizeLabel(canister), normalizeLabel(method)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
