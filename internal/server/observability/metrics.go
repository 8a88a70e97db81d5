// Package observability provides Prometheus metrics for the auth flows and
// an HTTP server exposing them together with health probes.
package observability

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

// ResultSuccess is the result label of operations that returned no error.
const ResultSuccess = "success"

// Metrics contains the auth metrics. A nil *Metrics records nothing.
type Metrics struct {
	OperationsTotal      *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	RefreshTokensPurged  prometheus.Counter
	PublishFailuresTotal prometheus.Counter
}

// NewMetrics creates and registers the auth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_auth_operations_total",
				Help: "Total number of auth operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_auth_operation_duration_seconds",
				Help:    "Duration of auth operations, password hashing included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RefreshTokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophauth_refresh_tokens_purged_total",
			Help: "Total number of expired refresh tokens removed by the janitor",
		}),
		PublishFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophauth_event_publish_failures_total",
			Help: "Total number of auth events that could not be published",
		}),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.RefreshTokensPurged, m.PublishFailuresTotal)

	return m
}

// ObserveOperation records one finished operation. The result label is
// ResultSuccess or the error kind ("conflict", "unauthorized", ...).
func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = common.KindOf(err).String()
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// AddPurged counts expired refresh tokens removed in one sweep.
func (m *Metrics) AddPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RefreshTokensPurged.Add(float64(n))
}

// IncPublishFailures counts one event that was not delivered.
func (m *Metrics) IncPublishFailures() {
	if m == nil {
		return
	}
	m.PublishFailuresTotal.Inc()
}
