// Package led drives LEDs on output pins and blinks them with a timer.
package led

import (
	"log/slog"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/capability"
	"github.com/lulf/drogue-device/core/hal"
)

type (
	// LED is the actor state of one LED. ActiveLow LEDs light with the pin low.
	LED struct {
		pin       hal.OutputPin
		activeLow bool
		on        bool
	}

	TurnOn  struct{}
	TurnOff struct{}
)

// Option configures an LED.
type Option func(*LED)

// ActiveLow inverts the pin level.
func ActiveLow() Option { return func(l *LED) { l.activeLow = true } }

// New returns the actor context for an LED on pin. The LED starts off.
func New(name string, pin hal.OutputPin, opts ...Option) *actor.Context[LED] {
	l := LED{pin: pin}
	for _, o := range opts {
		o(&l)
	}
	return actor.New(name, l,
		actor.OnStart(func(hc actor.HandlerCtx, l LED) actor.Completion[LED] {
			return actor.Immediate(l.set(hc, false))
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, l LED, _ TurnOn) actor.Completion[LED] {
			return actor.Immediate(l.set(hc, true))
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, l LED, _ TurnOff) actor.Completion[LED] {
			return actor.Immediate(l.set(hc, false))
		}),
	)
}

func (l LED) set(hc actor.HandlerCtx, on bool) LED {
	var err error
	if on != l.activeLow {
		err = l.pin.SetHigh()
	} else {
		err = l.pin.SetLow()
	}
	if err != nil {
		hc.Log().Warn("failed to drive pin", slog.Bool("on", on), slog.Any("error", err))
		return l
	}
	l.on = on
	return l
}

// Mount mounts an LED and returns its handle.
func Mount(rt *actor.Runtime, name string, pin hal.OutputPin, opts ...Option) Handle {
	return Handle{addr: New(name, pin, opts...).Mount(rt)}
}

// Handle is the address of a mounted LED.
type Handle struct {
	addr actor.Address[LED]
}

func (h Handle) Address() actor.Address[LED] { return h.addr }

func (h Handle) TurnOn() error  { return actor.Notify(h.addr, TurnOn{}) }
func (h Handle) TurnOff() error { return actor.Notify(h.addr, TurnOff{}) }

var _ capability.Switchable = Handle{}
