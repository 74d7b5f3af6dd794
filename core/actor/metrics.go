package actor

import "github.com/lulf/drogue-device/core/metrics"

// Metrics instruments message handling. Implementations must be safe for
// concurrent use: mailbox depth is reported from interrupt context too.
type Metrics interface {
	MessageDuration(actor, msgType string) metrics.Timer
	MessageProcessed(actor, msgType string, success bool)
	MessagePanic(actor, msgType string)
	MessageDropped(actor, msgType string)
	MailboxDepth(actor string, depth int)
}

type nopMetrics struct{}

func (nopMetrics) MessageDuration(string, string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) MessageProcessed(string, string, bool)        {}
func (nopMetrics) MessagePanic(string, string)                  {}
func (nopMetrics) MessageDropped(string, string)                {}
func (nopMetrics) MailboxDepth(string, int)                     {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
