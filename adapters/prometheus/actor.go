package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/metrics"
)

// actorMetrics implements actor.Metrics using Prometheus.
type actorMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	panicTotal      *prometheus.CounterVec
	droppedTotal    *prometheus.CounterVec
	mailboxDepth    *prometheus.GaugeVec
}

// NewActorMetrics creates a new Prometheus implementation of actor.Metrics.
func NewActorMetrics(reg prometheus.Registerer) actor.Metrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drogue_actor_message_duration_seconds",
			Help:    "Message handling time in seconds, including deferred completions",
			Buckets: defaultBuckets,
		}, []string{"actor", "message_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"actor", "message_type", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_actor_panics_total",
			Help: "Total number of handler panics",
		}, []string{"actor", "message_type"}),

		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drogue_actor_dropped_total",
			Help: "Notifications rejected because the mailbox was full",
		}, []string{"actor", "message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drogue_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.droppedTotal,
		m.mailboxDepth,
	)

	return m
}

func (m *actorMetrics) MessageDuration(name, msgType string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(name, msgType))
}

func (m *actorMetrics) MessageProcessed(name, msgType string, success bool) {
	m.messagesTotal.WithLabelValues(name, msgType, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessagePanic(name, msgType string) {
	m.panicTotal.WithLabelValues(name, msgType).Inc()
}

func (m *actorMetrics) MessageDropped(name, msgType string) {
	m.droppedTotal.WithLabelValues(name, msgType).Inc()
}

func (m *actorMetrics) MailboxDepth(name string, depth int) {
	m.mailboxDepth.WithLabelValues(name).Set(float64(depth))
}

var _ actor.Metrics = (*actorMetrics)(nil)
