// Package sim provides simulated peripherals for tests and the host board.
package sim

import (
	"sync"
	"time"

	"github.com/lulf/drogue-device/core/hal"
	"github.com/lulf/drogue-device/core/irq"
)

// StepTimer is a countdown timer whose countdown only completes when the
// caller says so. Tests use it to step through deadlines without sleeping.
type StepTimer struct {
	line *irq.Line

	mu      sync.Mutex
	armed   bool
	period  time.Duration
	flag    bool
	starts  []time.Duration
	clears  int
	elapsed time.Duration
}

// NewStepTimer returns a timer raising its update interrupt on line.
func NewStepTimer(line *irq.Line) *StepTimer {
	return &StepTimer{line: line}
}

func (t *StepTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.period = d
	t.flag = false
	t.starts = append(t.starts, d)
}

func (t *StepTimer) ClearUpdateInterruptFlag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flag = false
	t.clears++
}

// Expire completes the armed countdown and raises the interrupt. It reports
// the period that elapsed, or false when the timer was not armed.
func (t *StepTimer) Expire() (time.Duration, bool) {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return 0, false
	}
	d := t.period
	t.armed = false
	t.flag = true
	t.elapsed += d
	t.mu.Unlock()

	t.line.Raise()
	return d, true
}

// Armed reports the armed countdown period.
func (t *StepTimer) Armed() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period, t.armed
}

// Starts returns every period the timer was started with, oldest first.
func (t *StepTimer) Starts() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.starts...)
}

// Clears reports how often the interrupt flag was cleared.
func (t *StepTimer) Clears() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clears
}

// Now is the simulated time that passed through completed countdowns.
func (t *StepTimer) Now() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// WallTimer is a countdown timer driven by the host clock.
type WallTimer struct {
	line *irq.Line

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	started time.Time
}

// NewWallTimer returns a host clock backed timer raising its interrupt on line.
func NewWallTimer(line *irq.Line) *WallTimer {
	return &WallTimer{line: line}
}

func (t *WallTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.started = time.Now()
	t.timer = time.AfterFunc(d, func() {
		t.line.RaiseIf(func() bool { return t.current(gen) })
	})
}

func (t *WallTimer) ClearUpdateInterruptFlag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	// the countdown fired; any further callback for it is stale
	t.gen++
}

// Elapsed is the time since the last Start.
func (t *WallTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}

// Stop disarms the timer.
func (t *WallTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *WallTimer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}

var (
	_ hal.CountdownTimer   = (*StepTimer)(nil)
	_ hal.CountdownTimer   = (*WallTimer)(nil)
	_ hal.CountdownCounter = (*WallTimer)(nil)
)
