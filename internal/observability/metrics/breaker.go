package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// BreakerMetrics exposes circuit breaker state per external operation.
type BreakerMetrics struct {
	service     string
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

func NewBreakerMetrics(registry prometheus.Registerer, service string) *BreakerMetrics {
	state := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gomi",
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Total circuit breaker transitions by target state.",
		},
		[]string{"service", "operation", "state"},
	)
	registry.MustRegister(state, transitions)

	return &BreakerMetrics{service: service, state: state, transitions: transitions}
}

// ObserveBreakerState matches resilience.StateObserver.
func (m *BreakerMetrics) ObserveBreakerState(operation string, state gobreaker.State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(m.service, operation).Set(float64(state))
	m.transitions.WithLabelValues(m.service, operation, state.String()).Inc()
	if state == gobreaker.StateOpen {
		slog.Warn("circuit_breaker_open", "operation", operation)
	}
}
