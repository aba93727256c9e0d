package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benithors/dothost/internal/registrar"
)

// Metrics provides observability for registrar traffic and fetcher outcomes.
// All methods are safe on a nil receiver.
type Metrics struct {
	// Outbound registrar call latency by endpoint
	RegistrarLatency *prometheus.HistogramVec

	// Outbound registrar calls by endpoint and outcome
	RegistrarCalls *prometheus.CounterVec

	// Fetcher results by operation and outcome
	Results *prometheus.CounterVec
}

// New registers the dothost metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrarLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dothost_registrar_request_duration_seconds",
			Help:    "Duration of registrar API requests by endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),

		RegistrarCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dothost_registrar_requests_total",
			Help: "Total registrar API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		Results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dothost_fetch_results_total",
			Help: "Total fetcher results by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

// ObserveRegistrarCall records one outbound request. An empty kind is a success.
func (m *Metrics) ObserveRegistrarCall(endpoint string, kind registrar.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.RegistrarLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	m.RegistrarCalls.WithLabelValues(endpoint, outcome(kind)).Inc()
}

// IncrementResult records a fetcher result.
func (m *Metrics) IncrementResult(operation string, kind registrar.Kind) {
	if m != nil {
		m.Results.WithLabelValues(operation, outcome(kind)).Inc()
	}
}

func outcome(kind registrar.Kind) string {
	if kind == "" {
		return "ok"
	}
	return string(kind)
}
