package orchestrator

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports orchestrator counters to Prometheus. All underlying metric
// types are goroutine-safe. A nil *Metrics is a valid no-op receiver.
type Metrics struct {
	requests      *prometheus.CounterVec
	originErrors  *prometheus.CounterVec
	originSeconds prometheus.Histogram
}

// NewMetrics registers the orchestrator metrics with reg
// (nil => prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Requests served, by entity type and serving layer",
		}, []string{"entity", "source"}),
		originErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitwall",
			Subsystem: "cache",
			Name:      "origin_errors_total",
			Help:      "Failed origin fetches, by entity type",
		}, []string{"entity"}),
		originSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pitwall",
			Subsystem: "cache",
			Name:      "origin_fetch_seconds",
			Help:      "Origin fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.requests, m.originErrors, m.originSeconds)
	return m
}

func (m *Metrics) served(entity string, source string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(entity, source).Inc()
}

func (m *Metrics) originError(entity string) {
	if m == nil {
		return
	}
	m.originErrors.WithLabelValues(entity).Inc()
}

func (m *Metrics) originFetch(seconds float64) {
	if m == nil {
		return
	}
	m.originSeconds.Observe(seconds)
}
