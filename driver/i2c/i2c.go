// Package i2c drives an I2C master. Like the SPI package, the controller
// actor sits behind an arbitrator, so a register read-modify-write made of
// several transactions is the only thing left for callers to coordinate.
package i2c

import (
	"context"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/arbitrator"
	"github.com/lulf/drogue-device/core/hal"
)

type Options struct {
	ArbiterMetrics arbitrator.Metrics
}

// I2c is a mounted I2C controller behind its arbitrator.
type I2c struct {
	arbiter arbitrator.Handle[Controller, Transaction, Result]
}

// Mount mounts a controller named name for bus and its arbitrator.
func Mount(rt *actor.Runtime, name string, bus hal.I2cBus, opts Options) I2c {
	ctrl := NewController(name, bus).Mount(rt)
	return I2c{
		arbiter: arbitrator.Mount[Controller, Transaction, Result](rt, name+"-arbiter", ctrl, arbitrator.Options{Metrics: opts.ArbiterMetrics}),
	}
}

// Write sends data to the device at address.
func (i I2c) Write(ctx context.Context, address uint8, data []byte) error {
	_, err := i.submit(ctx, Transaction{Address: address, Write: data})
	return err
}

// WriteRead sends data and then fills buf from the device at address.
func (i I2c) WriteRead(ctx context.Context, address uint8, data []byte, buf []byte) error {
	_, err := i.submit(ctx, Transaction{Address: address, Write: data, Read: buf})
	return err
}

func (i I2c) submit(ctx context.Context, tx Transaction) (Result, error) {
	r, err := i.arbiter.Submit(ctx, tx)
	if err != nil {
		return r, err
	}
	return r, r.Err()
}
