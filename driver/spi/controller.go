package spi

import (
	"log/slog"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal"
)

type (
	// Controller is the actor state owning one SPI peripheral.
	Controller struct {
		bus hal.SpiBus
	}

	// Transfer shifts Words out and replaces them with the words shifted in.
	Transfer struct {
		Words []byte
	}

	// Result answers a Transfer.
	Result struct {
		Words []byte
		err   *Error
	}
)

// Err is the peripheral failure, or nil.
func (r Result) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// NewController returns the controller actor context for bus.
func NewController(name string, bus hal.SpiBus) *actor.Context[Controller] {
	return actor.New(name, Controller{bus: bus},
		actor.HandleRequest(func(hc actor.HandlerCtx, c Controller, t Transfer) actor.Response[Controller, Result] {
			return actor.DeferReply(c, func(hc actor.HandlerCtx, c Controller) (Controller, Result) {
				var busErr error
				// the transfer blocks on the peripheral; other actors run meanwhile
				_ = actor.Suspend(hc, func() error {
					busErr = c.bus.Transfer(t.Words)
					return nil
				})
				if err := classify(busErr); err != nil {
					hc.Log().Debug("transfer failed", slog.Int("words", len(t.Words)), slog.Any("error", err))
					return c, Result{Words: t.Words, err: err}
				}
				return c, Result{Words: t.Words}
			})
		}),
	)
}
