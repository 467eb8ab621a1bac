package orchestrator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.served("laps", "local")
	m.served("laps", "local")
	m.served("laps", "origin")
	m.originError("laps")
	m.originFetch(0.2)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("laps", "local")); got != 2 {
		t.Errorf("local requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("laps", "origin")); got != 1 {
		t.Errorf("origin requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.originErrors.WithLabelValues("laps")); got != 1 {
		t.Errorf("origin errors = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.served("laps", "local")
	m.originError("laps")
	m.originFetch(0.1)
}
