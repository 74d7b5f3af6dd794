package led

import (
	"log/slog"
	"time"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/capability"
)

type (
	// Blinker toggles a Switchable, rescheduling itself on every toggle.
	Blinker struct {
		led   capability.Switchable
		timer capability.Scheduler
		delay time.Duration
		self  actor.Address[Blinker]
	}

	// State is the toggle the blinker has scheduled for itself.
	State int

	// AdjustDelay changes the time between toggles from the next one on.
	AdjustDelay struct {
		Delay time.Duration `json:"delay"`
	}
)

const (
	On State = iota
	Off
)

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// NewBlinker returns a blinker toggling led every delay.
func NewBlinker(name string, led capability.Switchable, timer capability.Scheduler, delay time.Duration) *actor.Context[Blinker] {
	return actor.New(name, Blinker{led: led, timer: timer, delay: delay},
		actor.OnMount(func(b Blinker, self actor.Address[Blinker]) Blinker {
			b.self = self
			return b
		}),
		actor.OnStart(func(hc actor.HandlerCtx, b Blinker) actor.Completion[Blinker] {
			b.schedule(hc, On)
			return actor.Immediate(b)
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, b Blinker, s State) actor.Completion[Blinker] {
			var err error
			if s == On {
				err = b.led.TurnOn()
			} else {
				err = b.led.TurnOff()
			}
			if err != nil {
				hc.Log().Warn("failed to switch led", slog.String("state", s.String()), slog.Any("error", err))
			}
			b.schedule(hc, s.next())
			return actor.Immediate(b)
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, b Blinker, m AdjustDelay) actor.Completion[Blinker] {
			if m.Delay <= 0 {
				hc.Log().Warn("ignoring non-positive blink delay", slog.Duration("delay", m.Delay))
				return actor.Immediate(b)
			}
			hc.Log().Info("blink delay adjusted", slog.Duration("from", b.delay), slog.Duration("to", m.Delay))
			b.delay = m.Delay
			return actor.Immediate(b)
		}),
	)
}

func (s State) next() State {
	if s == On {
		return Off
	}
	return On
}

func (b Blinker) schedule(hc actor.HandlerCtx, s State) {
	if err := b.timer.Schedule(b.delay, actor.Deliver(b.self, s)); err != nil {
		hc.Log().Error("failed to schedule toggle, blinking stopped", slog.String("state", s.String()), slog.Any("error", err))
	}
}

// MountBlinker mounts a blinker and returns its handle.
func MountBlinker(rt *actor.Runtime, name string, led capability.Switchable, timer capability.Scheduler, delay time.Duration) BlinkerHandle {
	return BlinkerHandle{addr: NewBlinker(name, led, timer, delay).Mount(rt)}
}

// BlinkerHandle is the address of a mounted blinker.
type BlinkerHandle struct {
	addr actor.Address[Blinker]
}

func (h BlinkerHandle) Address() actor.Address[Blinker] { return h.addr }

// AdjustDelay changes the blink period.
func (h BlinkerHandle) AdjustDelay(d time.Duration) error {
	return actor.Notify(h.addr, AdjustDelay{Delay: d})
}
