package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts connector attempts by outcome.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

const (
	outcomeSuccess       = "success"
	outcomeConnectorErr  = "connector_error"
	outcomePipelineError = "pipeline_error"
)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payrouter_connector_requests_total",
			Help: "Connector flow attempts by outcome.",
		}, []string{"connector", "flow", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payrouter_connector_request_duration_seconds",
			Help:    "Connector flow attempt latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"connector", "flow"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(connector, flow, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(connector, flow, outcome).Inc()
	m.duration.WithLabelValues(connector, flow).Observe(d.Seconds())
}

// Requests exposes the attempt counter, mainly for tests.
func (m *Metrics) Requests() *prometheus.CounterVec { return m.requests }
