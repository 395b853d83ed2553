package sink

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petal-labs/warehouse/core"
)

// Metrics maintains Prometheus instruments for recorded calls.
type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers the call instruments with reg.
// A nil reg uses prometheus.DefaultRegisterer. Instruments already registered
// by an earlier Metrics are shared.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llm_warehouse",
		Name:      "calls_total",
		Help:      "Total number of recorded LLM SDK calls.",
	}, []string{"sdk_method", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "llm_warehouse",
		Name:      "call_latency_seconds",
		Help:      "Latency of recorded LLM SDK calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"sdk_method"})

	return &Metrics{
		calls:   register(reg, calls),
		latency: register(reg, latency),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Submit updates the instruments for r.
func (m *Metrics) Submit(r core.Record) {
	m.calls.WithLabelValues(r.SDKMethod, string(r.Outcome)).Inc()
	m.latency.WithLabelValues(r.SDKMethod).Observe(r.LatencySeconds())
}

var _ core.Sink = (*Metrics)(nil)
