package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lulf/drogue-device/core/arbitrator"
	"github.com/lulf/drogue-device/core/metrics"
)

// arbiterMetrics implements arbitrator.Metrics using Prometheus.
type arbiterMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	inflight *prometheus.GaugeVec
}

// NewArbiterMetrics creates a new Prometheus implementation of arbitrator.Metrics.
func NewArbiterMetrics(reg prometheus.Registerer) arbitrator.Metrics {
	m := &arbiterMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drogue_arbiter_transaction_duration_seconds",
			Help:    "Controller transaction time in seconds",
			Buckets: defaultBuckets,
		}, []string{"arbiter"}),

		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_arbiter_transactions_total",
			Help: "Total number of transactions forwarded to the controller",
		}, []string{"arbiter", "success"}),

		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drogue_arbiter_inflight",
			Help: "Transactions in flight at the controller, never above one",
		}, []string{"arbiter"}),
	}

	reg.MustRegister(m.duration, m.total, m.inflight)
	return m
}

func (m *arbiterMetrics) TransactionDuration(arbiter string) metrics.Timer {
	return newTimer(m.duration.WithLabelValues(arbiter))
}

func (m *arbiterMetrics) TransactionCompleted(arbiter string, success bool) {
	m.total.WithLabelValues(arbiter, boolToStr(success)).Inc()
}

func (m *arbiterMetrics) Inflight(arbiter string, n int) {
	m.inflight.WithLabelValues(arbiter).Set(float64(n))
}

var _ arbitrator.Metrics = (*arbiterMetrics)(nil)
