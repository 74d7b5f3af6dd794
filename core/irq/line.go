// Package irq models one hardware interrupt line shared between foreground
// code and its interrupt service routine.
//
// The service routine runs in interrupt context: it may preempt foreground
// code at any point, but never while foreground code is inside a critical
// section opened with [Line.Free]. While the routine runs, the line is
// masked, so a second interrupt on the same line waits until it returns.
package irq

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Handler is an interrupt service routine.
type Handler interface {
	OnInterrupt()
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func()

func (f HandlerFunc) OnInterrupt() { f() }

// Line is one interrupt line. The zero value is not usable; use [NewLine].
type Line struct {
	name string
	log  *slog.Logger

	mask    sync.Mutex
	handler atomic.Pointer[Handler]
	fired   atomic.Uint64
}

// NewLine returns an unattached line. Interrupts raised before a handler is
// attached are dropped.
func NewLine(name string, log *slog.Logger) *Line {
	if log == nil {
		log = slog.Default()
	}
	return &Line{name: name, log: log.With(slog.String("irq", name))}
}

// Attach installs the service routine for the line, replacing any previous one.
func (l *Line) Attach(h Handler) {
	l.handler.Store(&h)
}

// Raise delivers an interrupt: it masks the line, runs the service routine and
// unmasks. Raise is what a peripheral (or its simulation) calls when its
// interrupt condition is set.
func (l *Line) Raise() {
	hp := l.handler.Load()
	if hp == nil {
		l.log.Debug("interrupt without handler")
		return
	}

	l.mask.Lock()
	defer l.mask.Unlock()
	l.fired.Add(1)
	(*hp).OnInterrupt()
}

// Free runs f with the line masked. Keep f short and never suspend inside it.
func (l *Line) Free(f func()) {
	l.mask.Lock()
	defer l.mask.Unlock()
	f()
}

// Fired reports how many interrupts the service routine has handled.
func (l *Line) Fired() uint64 { return l.fired.Load() }

func (l *Line) Name() string { return l.name }

// RaiseIf is Raise with a guard evaluated under the mask. Peripherals whose
// interrupt condition can be cancelled by foreground code (for example by
// re-arming a countdown) use it to drop a stale interrupt.
func (l *Line) RaiseIf(pending func() bool) {
	hp := l.handler.Load()
	if hp == nil {
		l.log.Debug("interrupt without handler")
		return
	}

	l.mask.Lock()
	defer l.mask.Unlock()
	if !pending() {
		return
	}
	l.fired.Add(1)
	(*hp).OnInterrupt()
}
