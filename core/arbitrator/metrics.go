package arbitrator

import "github.com/lulf/drogue-device/core/metrics"

// Metrics instruments arbiters, labelled by arbiter name.
type Metrics interface {
	TransactionDuration(arbiter string) metrics.Timer
	TransactionCompleted(arbiter string, success bool)
	Inflight(arbiter string, n int)
}

type nopMetrics struct{}

func (nopMetrics) TransactionDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) TransactionCompleted(string, bool)        {}
func (nopMetrics) Inflight(string, int)                     {}

func NopMetrics() Metrics { return nopMetrics{} }
