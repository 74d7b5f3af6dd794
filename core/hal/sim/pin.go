package sim

import (
	"sync"

	"github.com/lulf/drogue-device/core/hal"
)

// Pin records the levels driven onto a simulated output.
type Pin struct {
	mu      sync.Mutex
	high    bool
	history []bool
	notify  chan bool
}

// NewPin returns a low pin. Level changes are also sent, without blocking,
// on the channel returned by Changes.
func NewPin() *Pin {
	return &Pin{notify: make(chan bool, 64)}
}

func (p *Pin) SetHigh() error { p.set(true); return nil }
func (p *Pin) SetLow() error  { p.set(false); return nil }

func (p *Pin) set(high bool) {
	p.mu.Lock()
	p.high = high
	p.history = append(p.history, high)
	p.mu.Unlock()

	select {
	case p.notify <- high:
	default:
	}
}

// IsHigh reports the current level.
func (p *Pin) IsHigh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// History returns every level driven, oldest first.
func (p *Pin) History() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.history...)
}

// Changes delivers level changes.
func (p *Pin) Changes() <-chan bool { return p.notify }

var _ hal.OutputPin = (*Pin)(nil)
