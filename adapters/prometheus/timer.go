package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lulf/drogue-device/core/timer"
)

// timerMetrics implements timer.Metrics using Prometheus.
type timerMetrics struct {
	slotsOccupied   *prometheus.GaugeVec
	exhaustedTotal  *prometheus.CounterVec
	expiredTotal    *prometheus.CounterVec
	reconciliations prometheus.Counter
	deliveryFailed  prometheus.Counter
}

// NewTimerMetrics creates a new Prometheus implementation of timer.Metrics.
func NewTimerMetrics(reg prometheus.Registerer) timer.Metrics {
	m := &timerMetrics{
		slotsOccupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drogue_timer_slots_occupied",
			Help: "Occupied deadline slots per pool",
		}, []string{"pool"}),

		exhaustedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_timer_capacity_exhausted_total",
			Help: "Requests rejected because every slot of the pool was occupied",
		}, []string{"pool"}),

		expiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_timer_expired_total",
			Help: "Deadlines that reached zero",
		}, []string{"pool"}),

		reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drogue_timer_reconciliations_total",
			Help: "Timer interrupts serviced",
		}),

		deliveryFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drogue_timer_delivery_failed_total",
			Help: "Scheduled notifications the destination did not accept",
		}),
	}

	reg.MustRegister(
		m.slotsOccupied,
		m.exhaustedTotal,
		m.expiredTotal,
		m.reconciliations,
		m.deliveryFailed,
	)

	return m
}

func (m *timerMetrics) SlotsOccupied(pool string, n int) {
	m.slotsOccupied.WithLabelValues(pool).Set(float64(n))
}

func (m *timerMetrics) CapacityExhausted(pool string) {
	m.exhaustedTotal.WithLabelValues(pool).Inc()
}

func (m *timerMetrics) Expired(pool string) {
	m.expiredTotal.WithLabelValues(pool).Inc()
}

func (m *timerMetrics) Reconciliation() { m.reconciliations.Inc() }

func (m *timerMetrics) DeliveryFailed() { m.deliveryFailed.Inc() }

var _ timer.Metrics = (*timerMetrics)(nil)
