// Package arbitrator serializes access to a shared peripheral controller.
//
// The controller is an actor answering one request type T with R. Callers
// submit transactions to the Arbiter instead of the controller; the Arbiter
// forwards them one at a time in the order they reached its mailbox and
// admits the next one only after the controller has answered the previous.
// Controller failures travel back inside R and are never retried.
package arbitrator

import (
	"context"
	"log/slog"

	"github.com/lulf/drogue-device/core/actor"
)

type (
	// Arbiter is the actor state guarding one controller.
	Arbiter[C any, T any, R any] struct {
		controller actor.Address[C]
		metrics    Metrics
		inflight   int
	}

	// Options configures an Arbiter.
	Options struct {
		Metrics Metrics
	}

	// Failer is implemented by responses that can carry a peripheral error.
	Failer interface {
		Err() error
	}

	// forwarded is what the arbiter answers its submitters with.
	forwarded[R any] struct {
		value R
		err   error
	}
)

// New returns an arbiter context named name in front of controller.
func New[C any, T any, R any](name string, controller actor.Address[C], opts Options) *actor.Context[Arbiter[C, T, R]] {
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	a := Arbiter[C, T, R]{controller: controller, metrics: opts.Metrics}
	return actor.New(name, a,
		actor.HandleRequest(func(hc actor.HandlerCtx, a Arbiter[C, T, R], tx T) actor.Response[Arbiter[C, T, R], forwarded[R]] {
			// the deferred reply keeps the state, so the mailbox stays
			// closed until the controller has answered
			return actor.DeferReply(a, func(hc actor.HandlerCtx, a Arbiter[C, T, R]) (Arbiter[C, T, R], forwarded[R]) {
				return a.forward(hc, tx)
			})
		}),
	)
}

func (a Arbiter[C, T, R]) forward(hc actor.HandlerCtx, tx T) (Arbiter[C, T, R], forwarded[R]) {
	name := hc.ActorName()
	a.inflight++
	a.metrics.Inflight(name, a.inflight)
	timer := a.metrics.TransactionDuration(name)

	r, err := actor.Request[R](hc, a.controller, tx)

	timer.ObserveDuration()
	a.inflight--
	a.metrics.Inflight(name, a.inflight)

	switch {
	case err != nil:
		hc.Log().Warn("controller request failed", slog.String("controller", a.controller.String()), slog.Any("error", err))
		a.metrics.TransactionCompleted(name, false)
	case failed(r):
		hc.Log().Debug("transaction failed", slog.String("controller", a.controller.String()), slog.Any("error", any(r).(Failer).Err()))
		a.metrics.TransactionCompleted(name, false)
	default:
		a.metrics.TransactionCompleted(name, true)
	}
	return a, forwarded[R]{value: r, err: err}
}

func failed(r any) bool {
	f, ok := r.(Failer)
	return ok && f.Err() != nil
}

// Mount mounts an arbiter for controller and returns its handle.
func Mount[C any, T any, R any](rt *actor.Runtime, name string, controller actor.Address[C], opts Options) Handle[C, T, R] {
	return Handle[C, T, R]{addr: New[C, T, R](name, controller, opts).Mount(rt)}
}

// Handle is the address of a mounted arbiter.
type Handle[C any, T any, R any] struct {
	addr actor.Address[Arbiter[C, T, R]]
}

func (h Handle[C, T, R]) Address() actor.Address[Arbiter[C, T, R]] { return h.addr }

func (h Handle[C, T, R]) IsZero() bool { return h.addr.IsZero() }

// Submit queues tx and suspends until the controller has answered it. A
// peripheral failure is part of R; the error reports delivery problems
// such as a stopped runtime.
func (h Handle[C, T, R]) Submit(ctx context.Context, tx T) (R, error) {
	res, err := actor.Request[forwarded[R]](ctx, h.addr, tx)
	if err != nil {
		var zero R
		return zero, err
	}
	return res.value, res.err
}
