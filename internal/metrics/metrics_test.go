package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGate("visibility", "allow")
	m.ObserveGate("visibility", "allow")
	m.ObserveGate("authorship", "forbidden")
	m.ObserveReconcile("ok", 5*time.Millisecond)
	m.ObserveHTTP("GET", "/posts/{postId}", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("visibility", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("authorship", "forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/posts/{postId}", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGate("visibility", "allow")
		m.ObserveReconcile("error", time.Second)
		m.ObserveHTTP("GET", "/", 500, time.Second)
	})
}
