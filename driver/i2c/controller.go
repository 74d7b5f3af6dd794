package i2c

import (
	"log/slog"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal"
)

type (
	// Controller is the actor state owning one I2C peripheral.
	Controller struct {
		bus hal.I2cBus
	}

	// Transaction writes Write to the device at Address. When Read is
	// non-empty a repeated start follows and Read is filled.
	Transaction struct {
		Address uint8
		Write   []byte
		Read    []byte
	}

	// Result answers a Transaction.
	Result struct {
		Read []byte
		err  *Error
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
func NewController(name string, bus hal.I2cBus) *actor.Context[Controller] {
	return actor.New(name, Controller{bus: bus},
		actor.HandleRequest(func(hc actor.HandlerCtx, c Controller, tx Transaction) actor.Response[Controller, Result] {
			return actor.DeferReply(c, func(hc actor.HandlerCtx, c Controller) (Controller, Result) {
				var busErr error
				_ = actor.Suspend(hc, func() error {
					busErr = c.do(tx)
					return nil
				})
				if err := classify(tx.Address, busErr); err != nil {
					hc.Log().Debug("transaction failed", slog.Int("address", int(tx.Address)), slog.Any("error", err))
					return c, Result{Read: tx.Read, err: err}
				}
				return c, Result{Read: tx.Read}
			})
		}),
	)
}

func (c Controller) do(tx Transaction) error {
	if len(tx.Read) == 0 {
		return c.bus.Write(tx.Address, tx.Write)
	}
	return c.bus.WriteRead(tx.Address, tx.Write, tx.Read)
}
