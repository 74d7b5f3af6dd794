// Package actor is the cooperative actor runtime of a device.
//
// An actor is a state value plus handlers. The state lives in a [Context];
// the runtime moves it into a handler, and the handler gives it back in a
// [Completion] (notifications) or a [Response] (requests). Because only the
// current holder can reach the state, actors need no locks.
//
// # Mounting
//
// The actor population is fixed before the [Runtime] starts:
//
//	rt := actor.NewRuntime(actor.Options{})
//	counter := actor.New("counter", Counter{},
//	    actor.HandleNotify(func(hc actor.HandlerCtx, c Counter, m Inc) actor.Completion[Counter] {
//	        c.N += m.By
//	        return actor.Immediate(c)
//	    }),
//	    actor.HandleRequest(func(hc actor.HandlerCtx, c Counter, _ Get) actor.Response[Counter, int] {
//	        return actor.Reply(c, c.N)
//	    }),
//	).Mount(rt)
//	_ = rt.Start(ctx)
//
// Mount returns an [Address]. Addresses are plain values; copy them into the
// state of collaborators from [OnMount] hooks or with [Bind].
//
// # Messaging
//
// [Notify] enqueues a message and returns at once; it is safe from interrupt
// context. [Request] suspends the caller until the handler has answered:
//
//	_ = actor.Notify(counter, Inc{By: 2})
//	n, err := actor.Request[int](ctx, counter, Get{})
//
// # Execution
//
// All handler bodies of a runtime run one at a time under a single baton.
// A handler yields the baton only at a suspension point: [Request], or any
// wait wrapped in [Suspend] such as a timer delay. Work that must suspend
// belongs in a deferred completion ([Defer], [DeferReply]); the actor takes
// no further message until it returns.
package actor
