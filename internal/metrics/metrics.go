// Package metrics exposes the Prometheus collectors of the blog backend.
// Every method is safe on a nil *Metrics so components can run without a registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	gateDecisions     *prometheus.CounterVec
	reconciles        *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by gate and outcome.",
		}, []string{"gate", "decision"}),
		reconciles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_reconciles_total",
			Help:      "Comment count reconciles by result.",
		}, []string{"result"}),
		reconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comment_reconcile_duration_seconds",
			Help:      "Time spent recounting and persisting a post's comment count.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveGate counts one gate decision.
func (m *Metrics) ObserveGate(gate, decision string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(gate, decision).Inc()
}

// ObserveReconcile records one reconcile run.
func (m *Metrics) ObserveReconcile(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(result).Inc()
	m.reconcileDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
