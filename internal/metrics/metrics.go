package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "filemate"

// Metrics is nil-safe: every method on a nil receiver is a no-op.
type Metrics struct {
	AuthOperations *prometheus.CounterVec
	TokensIssued   *prometheus.CounterVec
	RevokedTokens  prometheus.Gauge
	SweptTokens    prometheus.Counter
	HTTPRequests   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Session authority operations by outcome.",
		}, []string{"operation", "outcome"}),
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Signed tokens issued by type.",
		}, []string{"type"}),
		RevokedTokens: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revoked_tokens",
			Help:      "Entries currently held by the revocation registry.",
		}),
		SweptTokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocation_swept_total",
			Help:      "Revocation entries evicted by the sweep.",
		}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveToken(tokenType string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(tokenType).Inc()
}

func (m *Metrics) ObserveRevocations(size int) {
	if m == nil || size < 0 {
		return
	}
	m.RevokedTokens.Set(float64(size))
}

func (m *Metrics) ObserveSweep(evicted, remaining int) {
	if m == nil {
		return
	}
	m.SweptTokens.Add(float64(evicted))
	m.ObserveRevocations(remaining)
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Observe(seconds)
}
