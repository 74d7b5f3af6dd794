package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/capability"
)

type (
	// Timer is the actor state of the timer peripheral.
	Timer struct {
		mux *Multiplexer
	}

	// DelayRequest asks for a one-shot delay.
	DelayRequest struct {
		Duration time.Duration
	}

	// DelayResult carries the awaitable of a delay, or ErrNoCapacity.
	DelayResult struct {
		Deadline *Deadline
		Err      error
	}

	// ScheduleRequest registers a delivery after Delay. As a notification a
	// full pool is only logged; as a request the error is returned.
	ScheduleRequest struct {
		Delay    time.Duration
		Delivery actor.Delivery
	}
)

// New returns the timer actor context for mux.
func New(mux *Multiplexer) *actor.Context[Timer] {
	return actor.New("timer", Timer{mux: mux},
		actor.HandleRequest(func(hc actor.HandlerCtx, t Timer, r DelayRequest) actor.Response[Timer, DelayResult] {
			dl, err := t.mux.Delay(r.Duration)
			return actor.Reply(t, DelayResult{Deadline: dl, Err: err})
		}),
		actor.HandleNotify(func(hc actor.HandlerCtx, t Timer, r ScheduleRequest) actor.Completion[Timer] {
			if err := t.schedule(r); err != nil {
				hc.Log().Warn("schedule failed", slog.String("delivery", r.Delivery.String()), slog.Any("error", err))
			}
			return actor.Immediate(t)
		}),
		actor.HandleRequest(func(hc actor.HandlerCtx, t Timer, r ScheduleRequest) actor.Response[Timer, error] {
			return actor.Reply(t, t.schedule(r))
		}),
	)
}

func (t Timer) schedule(r ScheduleRequest) error {
	return t.mux.Schedule(r.Delay, r.Delivery.String(), r.Delivery.Send)
}

// Mount mounts a timer actor for mux and returns its handle.
func Mount(rt *actor.Runtime, mux *Multiplexer) Handle {
	return Handle{addr: New(mux).Mount(rt)}
}

// Handle is the address of a mounted timer with its operations.
type Handle struct {
	addr actor.Address[Timer]
}

// HandleOf wraps a timer address.
func HandleOf(addr actor.Address[Timer]) Handle { return Handle{addr: addr} }

func (h Handle) Address() actor.Address[Timer] { return h.addr }

// Delay suspends the caller for d.
func (h Handle) Delay(ctx context.Context, d time.Duration) error {
	res, err := actor.Request[DelayResult](ctx, h.addr, DelayRequest{Duration: d})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	return res.Deadline.Wait(ctx)
}

// Schedule sends the delivery after delay. It never suspends.
func (h Handle) Schedule(delay time.Duration, d actor.Delivery) error {
	return actor.Notify(h.addr, ScheduleRequest{Delay: delay, Delivery: d})
}

// TrySchedule is Schedule reporting ErrNoCapacity to the caller.
func (h Handle) TrySchedule(ctx context.Context, delay time.Duration, d actor.Delivery) error {
	res, err := actor.Request[error](ctx, h.addr, ScheduleRequest{Delay: delay, Delivery: d})
	if err != nil {
		return err
	}
	return res
}

// Schedule notifies dest with event once delay has passed.
func Schedule[A any, E any](h Handle, delay time.Duration, event E, dest actor.Address[A]) error {
	return h.Schedule(delay, actor.Deliver(dest, event))
}

var (
	_ capability.Scheduler = Handle{}
	_ capability.Delayer   = Handle{}
)
