package otp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordIssue(string)         {}
func (n *NoopMetricsCollector) RecordVerify(string)        {}
func (n *NoopMetricsCollector) RecordCleanup(int64, int64) {}

// PrometheusMetrics counts issue and verify outcomes and cleanup deletions.
type PrometheusMetrics struct {
	issued   *prometheus.CounterVec
	verified *prometheus.CounterVec
	cleaned  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		issued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_issue_total",
				Help: "Total number of code issue requests by result",
			},
			[]string{"result"},
		),
		verified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_verify_total",
				Help: "Total number of code verifications by result",
			},
			[]string{"result"},
		),
		cleaned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_cleanup_deleted_total",
				Help: "Rows removed by the cleanup job",
			},
			[]string{"kind"},
		),
	}
}

func (m *PrometheusMetrics) RecordIssue(result string) {
	m.issued.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) RecordVerify(result string) {
	m.verified.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) RecordCleanup(codes, lockouts int64) {
	m.cleaned.WithLabelValues("codes").Add(float64(codes))
	m.cleaned.WithLabelValues("lockouts").Add(float64(lockouts))
}
