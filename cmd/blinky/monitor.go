package main

import (
	"log/slog"
	"time"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/timer"
	"github.com/lulf/drogue-device/driver/i2c"
	"github.com/lulf/drogue-device/driver/sensor/hts221"
)

type (
	// monitor keeps the HTS221 data-ready output enabled and reports its
	// configuration every poll interval.
	monitor struct {
		bus      i2c.I2c
		timer    timer.Handle
		interval time.Duration
		publish  func(topic string, v any) error
		self     actor.Address[monitor]
	}

	poll      struct{}
	readCtrl3 struct{}

	// ctrl3Reading is the published form of CTRL_REG3.
	ctrl3Reading struct {
		ActiveLow bool   `json:"active_low"`
		OpenDrain bool   `json:"open_drain"`
		Enabled   bool   `json:"enabled"`
		Error     string `json:"error,omitempty"`
	}
)

func newReading(c hts221.Ctrl3, err error) ctrl3Reading {
	if err != nil {
		return ctrl3Reading{Error: err.Error()}
	}
	return ctrl3Reading{
		ActiveLow: c.Active == hts221.ActiveLow,
		OpenDrain: c.Mode == hts221.OpenDrain,
		Enabled:   c.Enable,
	}
}

func newMonitor(bus i2c.I2c, tim timer.Handle, interval time.Duration, publish func(string, any) error) *actor.Context[monitor] {
	m := monitor{bus: bus, timer: tim, interval: interval, publish: publish}
	return actor.New("hts221-monitor", m,
		actor.OnMount(func(m monitor, self actor.Address[monitor]) monitor {
			m.self = self
			return m
		}),
		actor.OnStart(func(hc actor.HandlerCtx, m monitor) actor.Completion[monitor] {
			return actor.Defer(m, func(hc actor.HandlerCtx, m monitor) monitor {
				err := hts221.ModifyCtrl3(hc, m.bus, hts221.Address, func(c *hts221.Ctrl3) {
					c.Enable = true
				})
				if err != nil {
					hc.Log().Error("failed to enable data ready", slog.Any("error", err))
				}
				m.reschedule(hc)
				return m
			})
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, m monitor, _ poll) actor.Completion[monitor] {
			return actor.Defer(m, func(hc actor.HandlerCtx, m monitor) monitor {
				r := newReading(hts221.ReadCtrl3(hc, m.bus, hts221.Address))
				if err := m.publish("ctrl3", r); err != nil {
					hc.Log().Debug("reading not published", slog.Any("error", err))
				}
				m.reschedule(hc)
				return m
			})
		}),
		actor.HandleRequest(func(hc actor.HandlerCtx, m monitor, _ readCtrl3) actor.Response[monitor, ctrl3Reading] {
			return actor.DeferReply(m, func(hc actor.HandlerCtx, m monitor) (monitor, ctrl3Reading) {
				return m, newReading(hts221.ReadCtrl3(hc, m.bus, hts221.Address))
			})
		}),
	)
}

func (m monitor) reschedule(hc actor.HandlerCtx) {
	if err := timer.Schedule(m.timer, m.interval, poll{}, m.self); err != nil {
		hc.Log().Error("failed to schedule poll, monitoring stopped", slog.Any("error", err))
	}
}
