package actor

import (
	"github.com/lulf/drogue-device/internal/reflector"
)

type (
	// Completion returns actor state from a notification handler. An
	// immediate completion hands the state straight back to the runtime; a
	// deferred one keeps it until the deferred function returns, and no
	// other message reaches the actor in the meantime.
	Completion[A any] struct {
		state   A
		pending func(HandlerCtx, A) A
	}

	// Response is the Completion of a request handler, carrying the value
	// delivered to the requester.
	Response[A any, R any] struct {
		state   A
		value   R
		pending func(HandlerCtx, A) (A, R)
	}

	// Registration configures a Context. Create them with HandleNotify,
	// HandleRequest, HandleBind, OnMount and OnStart.
	Registration[A any] func(c *Context[A])
)

// Immediate completes a handler with state a.
func Immediate[A any](a A) Completion[A] { return Completion[A]{state: a} }

// Defer completes a handler once f returns. f receives the state and must
// return it; it may suspend.
func Defer[A any](a A, f func(hc HandlerCtx, a A) A) Completion[A] {
	return Completion[A]{state: a, pending: f}
}

func (c Completion[A]) Pending() bool { return c.pending != nil }

// Reply answers a request immediately.
func Reply[A any, R any](a A, r R) Response[A, R] {
	return Response[A, R]{state: a, value: r}
}

// DeferReply answers a request once f returns.
func DeferReply[A any, R any](a A, f func(hc HandlerCtx, a A) (A, R)) Response[A, R] {
	return Response[A, R]{state: a, pending: f}
}

func (r Response[A, R]) Pending() bool { return r.pending != nil }

type kind int

const (
	kindNotify kind = iota
	kindRequest
)

func (k kind) String() string {
	if k == kindRequest {
		return "request"
	}
	return "notify"
}

// outcome is the type-erased result of one dispatch.
type outcome[A any] struct {
	state   A
	value   any
	pending func(HandlerCtx, A) (A, any)
}

type dispatchFunc[A any] func(hc HandlerCtx, a A, msg any) outcome[A]

type handler[A any] struct {
	kind     kind
	msgType  reflector.MessageType
	dispatch dispatchFunc[A]
}

func fromCompletion[A any](c Completion[A]) outcome[A] {
	o := outcome[A]{state: c.state}
	if c.pending != nil {
		p := c.pending
		o.pending = func(hc HandlerCtx, a A) (A, any) { return p(hc, a), nil }
	}
	return o
}

// HandleNotify registers a notification handler for messages of type M.
func HandleNotify[A any, M any](h func(hc HandlerCtx, a A, m M) Completion[A]) Registration[A] {
	mt := reflector.For[M]()
	return func(c *Context[A]) {
		c.register(handler[A]{
			kind:    kindNotify,
			msgType: mt,
			dispatch: func(hc HandlerCtx, a A, msg any) outcome[A] {
				return fromCompletion(h(hc, a, msg.(M)))
			},
		})
	}
}

// HandleRequest registers a request handler for messages of type M
// answering with R. Failures belong in R.
func HandleRequest[A any, M any, R any](h func(hc HandlerCtx, a A, m M) Response[A, R]) Registration[A] {
	mt := reflector.For[M]()
	return func(c *Context[A]) {
		c.register(handler[A]{
			kind:    kindRequest,
			msgType: mt,
			dispatch: func(hc HandlerCtx, a A, msg any) outcome[A] {
				res := h(hc, a, msg.(M))
				o := outcome[A]{state: res.state, value: res.value}
				if res.pending != nil {
					p := res.pending
					o.pending = func(hc HandlerCtx, a A) (A, any) {
						a, r := p(hc, a)
						return a, r
					}
				}
				return o
			},
		})
	}
}

// bound carries the address delivered by Bind.
type bound[O any] struct{ address Address[O] }

// HandleBind registers the handler receiving the address of an O actor
// bound with Bind.
func HandleBind[A any, O any](h func(hc HandlerCtx, a A, other Address[O]) A) Registration[A] {
	return HandleNotify(func(hc HandlerCtx, a A, m bound[O]) Completion[A] {
		return Immediate(h(hc, a, m.address))
	})
}

// OnMount registers a hook run when the context is mounted. It receives the
// actor's own address; wiring to collaborators is captured by f.
func OnMount[A any](f func(a A, self Address[A]) A) Registration[A] {
	return func(c *Context[A]) { c.onMount = append(c.onMount, f) }
}

// OnStart registers a hook run by the actor loop before its first message.
func OnStart[A any](f func(hc HandlerCtx, a A) Completion[A]) Registration[A] {
	return func(c *Context[A]) { c.onStart = append(c.onStart, f) }
}
