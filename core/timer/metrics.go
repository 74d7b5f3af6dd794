package timer

// Metrics instruments the multiplexer. Methods are called from interrupt
// context and must not block.
type Metrics interface {
	SlotsOccupied(pool string, n int)
	CapacityExhausted(pool string)
	Expired(pool string)
	Reconciliation()
	DeliveryFailed()
}

type nopMetrics struct{}

func (nopMetrics) SlotsOccupied(string, int) {}
func (nopMetrics) CapacityExhausted(string)  {}
func (nopMetrics) Expired(string)            {}
func (nopMetrics) Reconciliation()           {}
func (nopMetrics) DeliveryFailed()           {}

func NopMetrics() Metrics { return nopMetrics{} }
