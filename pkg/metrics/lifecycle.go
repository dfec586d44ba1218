package metrics

import "github.com/prometheus/client_golang/prometheus"

// LifecycleMetrics counts gate decisions per action.
type LifecycleMetrics struct {
	decisions *prometheus.CounterVec
}

// NewLifecycleMetrics registers the gate metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_gate_decisions_total",
		Help: "Lifecycle gate decisions by action and result code.",
	}, []string{"action", "result"})
	reg.MustRegister(decisions)
	return &LifecycleMetrics{decisions: decisions}
}

// IncDecision counts one gate check. result is "allowed" or an error code.
func (l *LifecycleMetrics) IncDecision(action, result string) {
	if l == nil || l.decisions == nil {
		return
	}
	l.decisions.WithLabelValues(normalizeLabel(action), normalizeLabel(result)).Inc()
}
