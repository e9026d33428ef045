// Package metrics holds the Prometheus collectors for the challenge engine
// and the HTTP layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	memberships     *prometheus.CounterVec
	scoreDetails    *prometheus.CounterVec
	sweepDuration   *prometheus.HistogramVec
	refundTransfers *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		memberships: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dongibuyeo",
			Name:      "membership_changes_total",
			Help:      "Challenge membership changes by action.",
		}, []string{"action"}),
		scoreDetails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dongibuyeo",
			Name:      "score_details_total",
			Help:      "Score details appended, by source.",
		}, []string{"source"}),
		sweepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dongibuyeo",
			Name:      "fever_sweep_duration_seconds",
			Help:      "Duration of fever-time sweeps by challenge type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"challenge_type"}),
		refundTransfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dongibuyeo",
			Name:      "refund_transfers_total",
			Help:      "Deposit refund transfer attempts by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dongibuyeo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dongibuyeo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) MembershipChanged(action string) {
	if m == nil {
		return
	}
	m.memberships.WithLabelValues(action).Inc()
}

func (m *Metrics) ScoreDetailAdded(source string) {
	if m == nil {
		return
	}
	m.scoreDetails.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveSweep(challengeType string, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.WithLabelValues(challengeType).Observe(d.Seconds())
}

func (m *Metrics) RefundAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.refundTransfers.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
