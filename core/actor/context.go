package actor

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lulf/drogue-device/internal/reflector"
)

// envelope is one queued message.
type envelope struct {
	msgType reflector.MessageType
	msg     any
	reply   chan reply
}

type reply struct {
	value any
	err   error
}

// Context owns one actor's state and runs its message loop. The state value
// is held by exactly one of: the idle Context, a running handler, or a
// deferred completion. Handlers receive it by value and give it back, so
// nothing else ever observes it.
type Context[A any] struct {
	name string
	id   string
	log  *slog.Logger
	rt   *Runtime

	state    A
	handlers map[handlerKey]handler[A]
	onMount  []func(A, Address[A]) A
	onStart  []func(HandlerCtx, A) Completion[A]

	mailboxSize int
	mailbox     chan envelope
	mounted     atomic.Bool
}

// New creates an unmounted actor context holding state.
func New[A any](name string, state A, regs ...Registration[A]) *Context[A] {
	c := &Context[A]{
		name:     name,
		state:    state,
		handlers: make(map[handlerKey]handler[A]),
	}
	for _, r := range regs {
		r(c)
	}
	return c
}

// WithMailboxSize overrides the runtime default mailbox capacity.
func (c *Context[A]) WithMailboxSize(n int) *Context[A] {
	c.mailboxSize = n
	return c
}

// Handle adds registrations. It must be called before Mount.
func (c *Context[A]) Handle(regs ...Registration[A]) *Context[A] {
	if c.mounted.Load() {
		panic("actor: Handle on mounted actor " + c.name)
	}
	for _, r := range regs {
		r(c)
	}
	return c
}

// Mount attaches the context to rt and returns its address. Mounting twice,
// or after rt started, is a programming error and panics.
func (c *Context[A]) Mount(rt *Runtime) Address[A] {
	if !c.mounted.CompareAndSwap(false, true) {
		panic("actor: " + c.name + " mounted twice")
	}

	size := c.mailboxSize
	if size <= 0 {
		size = rt.mailboxSize
	}
	c.rt = rt
	c.id = c.name + "-" + gonanoid.Must(6)
	c.log = rt.log.With(slog.String("actor", c.name), slog.String("actor_id", c.id))
	c.mailbox = make(chan envelope, size)

	rt.mount(c)

	self := Address[A]{c: c}
	for _, f := range c.onMount {
		c.state = f(c.state, self)
	}
	c.log.Debug("mounted", slog.Int("mailbox", size), slog.Int("handlers", len(c.handlers)))
	return self
}

func (c *Context[A]) actorID() string   { return c.id }
func (c *Context[A]) actorName() string { return c.name }

// handlerKey allows one notification and one request handler per message type.
type handlerKey struct {
	msgType reflect.Type
	kind    kind
}

func (c *Context[A]) register(h handler[A]) {
	c.handlers[handlerKey{msgType: h.msgType.Type, kind: h.kind}] = h
}

func (c *Context[A]) lookup(mt reflector.MessageType, k kind) (handler[A], error) {
	h, ok := c.handlers[handlerKey{msgType: mt.Type, kind: k}]
	if !ok {
		return h, fmt.Errorf("%w: actor=%s %s=%s", ErrNoHandler, c.name, k, mt)
	}
	return h, nil
}

// enqueue adds env to the mailbox without waiting.
func (c *Context[A]) enqueue(env envelope) error {
	if c.rt.stopped() {
		return ErrStopped
	}
	select {
	case c.mailbox <- env:
		c.rt.metrics.MailboxDepth(c.name, len(c.mailbox))
		return nil
	default:
		c.rt.metrics.MessageDropped(c.name, env.msgType.Name)
		return fmt.Errorf("%w: actor=%s msg=%s", ErrMailboxFull, c.name, env.msgType)
	}
}

// enqueueWait adds env to the mailbox, waiting for room.
func (c *Context[A]) enqueueWait(ctx context.Context, env envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.rt.Done():
		return ErrStopped
	case c.mailbox <- env:
		c.rt.metrics.MailboxDepth(c.name, len(c.mailbox))
		return nil
	}
}

// configure applies a configuration message. Before the runtime starts the
// loop is not running, so the idle state is changed in place; afterwards the
// message goes through the mailbox like any notification.
func (c *Context[A]) configure(msg any) error {
	mt := reflector.Of(msg)
	h, err := c.lookup(mt, kindNotify)
	if err != nil {
		return err
	}

	c.rt.mu.Lock()
	if !c.rt.started {
		defer c.rt.mu.Unlock()
		hc := &handlerCtx{Context: context.Background(), log: c.log, id: c.id, name: c.name}
		_, err := c.invoke(hc, h, msg)
		return err
	}
	c.rt.mu.Unlock()

	return c.enqueue(envelope{msgType: mt, msg: msg})
}

func (c *Context[A]) run(ctx context.Context) error {
	c.log.Debug("actor loop started")
	defer c.log.Debug("actor loop stopped")

	for i, f := range c.onStart {
		h := handler[A]{
			kind:    kindNotify,
			msgType: reflector.MessageType{Name: fmt.Sprintf("lifecycle/start#%d", i)},
			dispatch: func(hc HandlerCtx, a A, _ any) outcome[A] {
				return fromCompletion(f(hc, a))
			},
		}
		if err := c.process(ctx, h, envelope{msgType: h.msgType}); err != nil {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-c.mailbox:
			c.rt.metrics.MailboxDepth(c.name, len(c.mailbox))
			h, err := c.lookup(env.msgType, kindOf(env))
			if err != nil {
				c.log.Warn("dropping message", slog.Any("error", err))
				if env.reply != nil {
					env.reply <- reply{err: err}
				}
				continue
			}
			if err := c.process(ctx, h, env); err != nil {
				return nil
			}
		}
	}
}

func kindOf(env envelope) kind {
	if env.reply != nil {
		return kindRequest
	}
	return kindNotify
}

// process runs one handler under the baton. It fails only when the runtime
// stopped before the baton could be taken.
func (c *Context[A]) process(ctx context.Context, h handler[A], env envelope) error {
	if err := c.rt.acquire(ctx); err != nil {
		if env.reply != nil {
			env.reply <- reply{err: err}
		}
		return err
	}

	t := &task{rt: c.rt, actorID: c.id}
	t.holding.Store(true)
	hc := &handlerCtx{Context: withTask(ctx, t), log: c.log, id: c.id, name: c.name}

	timer := c.rt.metrics.MessageDuration(c.name, h.msgType.Name)
	value, err := c.invoke(hc, h, env.msg)
	timer.ObserveDuration()

	t.holding.Store(false)
	c.rt.release()

	c.rt.metrics.MessageProcessed(c.name, h.msgType.Name, err == nil)
	if env.reply != nil {
		env.reply <- reply{value: value, err: err}
	}
	return nil
}

// invoke moves the state into the handler and takes back whatever it returns.
// A panicking handler leaves the state as it was before the call.
func (c *Context[A]) invoke(hc HandlerCtx, h handler[A], msg any) (value any, err error) {
	prev := c.state
	var transit A
	c.state = transit

	defer func() {
		if r := recover(); r != nil {
			c.state = prev
			c.rt.metrics.MessagePanic(c.name, h.msgType.Name)
			c.rt.onPanic(r, debug.Stack(), msg)
			err = fmt.Errorf("%w: actor=%s msg=%s: %v", ErrHandlerPanic, c.name, h.msgType, r)
		}
	}()

	o := h.dispatch(hc, prev, msg)
	state, value := o.state, o.value
	if o.pending != nil {
		state, value = o.pending(hc, state)
	}
	c.state = state
	return value, nil
}
