package actor

import (
	"context"
	"fmt"

	"github.com/lulf/drogue-device/internal/reflector"
)

// Address is a copyable capability to send messages to one mounted actor.
// Addresses are only handed out by Mount and stay valid for the life of the
// runtime; the zero Address refers to nothing and panics when used.
type Address[A any] struct {
	c *Context[A]
}

func (a Address[A]) context() *Context[A] {
	if a.c == nil {
		panic("actor: use of zero Address")
	}
	return a.c
}

// ID is the unique id assigned at mount.
func (a Address[A]) ID() string { return a.context().id }

// Name is the name given to New.
func (a Address[A]) Name() string { return a.context().name }

func (a Address[A]) IsZero() bool { return a.c == nil }

func (a Address[A]) String() string {
	if a.c == nil {
		return "<unmounted>"
	}
	return a.c.id
}

// Notify enqueues m for the actor behind to and returns at once. It never
// waits: a full mailbox yields ErrMailboxFull. Notify is safe to call from
// interrupt context.
func Notify[A any, M any](to Address[A], m M) error {
	c := to.context()
	mt := reflector.Of(m)
	if _, err := c.lookup(mt, kindNotify); err != nil {
		return err
	}
	return c.enqueue(envelope{msgType: mt, msg: m})
}

// Request enqueues m and suspends until the actor's handler has produced a
// response of type R. When called from a handler the runtime runs other
// actors while the caller waits.
func Request[R any, A any, M any](ctx context.Context, to Address[A], m M) (out R, err error) {
	c := to.context()
	mt := reflector.Of(m)
	if _, err = c.lookup(mt, kindRequest); err != nil {
		return out, err
	}
	if t := taskFrom(ctx); t != nil && t.actorID == c.id {
		return out, fmt.Errorf("%w: actor=%s msg=%s", ErrSelfRequest, c.name, mt)
	}

	replyCh := make(chan reply, 1)
	var res reply
	err = Suspend(ctx, func() error {
		if err := c.enqueueWait(ctx, envelope{msgType: mt, msg: m, reply: replyCh}); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.rt.Done():
			return ErrStopped
		case res = <-replyCh:
			return nil
		}
	})
	if err != nil {
		return out, err
	}
	if res.err != nil {
		return out, res.err
	}
	if res.value == nil {
		return out, nil
	}
	out, ok := res.value.(R)
	if !ok {
		return out, fmt.Errorf("%w: actor=%s msg=%s got=%T", ErrResponseType, c.name, mt, res.value)
	}
	return out, nil
}

// Bind hands the address of o to a's bind handler for O. If o also has a
// bind handler for A, it receives a's address, making the binding mutual.
// Before the runtime starts bindings are applied in place; afterwards they
// are delivered as notifications.
func Bind[A any, O any](a Address[A], o Address[O]) error {
	ca, co := a.context(), o.context()
	if err := ca.configure(bound[O]{address: o}); err != nil {
		return err
	}

	back := bound[A]{address: a}
	if _, err := co.lookup(reflector.Of(back), kindNotify); err != nil {
		return nil
	}
	return co.configure(back)
}

// Delivery is a notification bound to its destination, to be sent later,
// possibly from interrupt context.
type Delivery struct {
	to   string
	msg  string
	send func() error
}

// Deliver binds m to the actor behind to.
func Deliver[A any, M any](to Address[A], m M) Delivery {
	c := to.context()
	return Delivery{
		to:   c.id,
		msg:  reflector.Of(m).Name,
		send: func() error { return Notify(to, m) },
	}
}

// Send notifies the destination.
func (d Delivery) Send() error {
	if d.send == nil {
		return nil
	}
	return d.send()
}

func (d Delivery) IsZero() bool { return d.send == nil }

func (d Delivery) String() string { return d.msg + " -> " + d.to }
