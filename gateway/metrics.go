package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeOK = "ok"

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Teardowns prometheus.Counter
}

// NewMetrics creates the gateway metrics and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seller_gateway_requests_total",
				Help: "Requests sent to the seller backend by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seller_gateway_request_duration_seconds",
				Help:    "Time from dispatch to response or transport failure",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Teardowns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "seller_gateway_session_teardowns_total",
				Help: "Sessions ended because the backend answered 401",
			},
		),
	}
}

func (m *Metrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome).Inc()
	m.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) teardown() {
	if m == nil {
		return
	}
	m.Teardowns.Inc()
}
