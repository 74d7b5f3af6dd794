// Package spi drives an SPI peripheral. The controller actor owns the bus
// and is only reachable through an arbitrator, so every user of a Spi sees
// its transfers run alone and in submission order.
package spi

import (
	"context"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/arbitrator"
	"github.com/lulf/drogue-device/core/hal"
)

// Options configures a Spi package.
type Options struct {
	ArbiterMetrics arbitrator.Metrics
}

// Spi is a mounted SPI controller behind its arbitrator.
type Spi struct {
	arbiter arbitrator.Handle[Controller, Transfer, Result]
}

// Mount mounts a controller named name for bus and its arbitrator.
func Mount(rt *actor.Runtime, name string, bus hal.SpiBus, opts Options) Spi {
	ctrl := NewController(name, bus).Mount(rt)
	return Spi{
		arbiter: arbitrator.Mount[Controller, Transfer, Result](rt, name+"-arbiter", ctrl, arbitrator.Options{Metrics: opts.ArbiterMetrics}),
	}
}

// Transfer performs a full-duplex transfer of words in place and returns
// the words read. A peripheral failure is an *Error.
func (s Spi) Transfer(ctx context.Context, words []byte) ([]byte, error) {
	r, err := s.arbiter.Submit(ctx, Transfer{Words: words})
	if err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return r.Words, err
	}
	return r.Words, nil
}

// Arbiter is the arbitrator guarding the controller.
func (s Spi) Arbiter() arbitrator.Handle[Controller, Transfer, Result] { return s.arbiter }
