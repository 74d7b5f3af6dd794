// Package prometheus provides Prometheus implementations of the runtime,
// timer and arbitrator metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lulf/drogue-device/core/metrics"
)

// histogramTimer wraps a Prometheus histogram to implement the Timer interface.
type histogramTimer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &histogramTimer{h: h, start: time.Now()}
}

func (t *histogramTimer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds). Handlers and
// bus transactions on a device are short, so the range starts lower.
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

// AllMetrics holds Prometheus implementations for every instrumented component.
type AllMetrics struct {
	Actor   *actorMetrics
	Timer   *timerMetrics
	Arbiter *arbiterMetrics
}

// NewAllMetrics creates and registers all metrics on reg.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Actor:   NewActorMetrics(reg).(*actorMetrics),
		Timer:   NewTimerMetrics(reg).(*timerMetrics),
		Arbiter: NewArbiterMetrics(reg).(*arbiterMetrics),
	}
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
