package actor

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type (
	// HandlerCtx is passed to every handler. It is cancelled when the runtime
	// stops, and it carries the handler's claim on the runtime baton, so
	// waits started from it (Request, Suspend) yield to other actors.
	HandlerCtx interface {
		context.Context
		Log() *slog.Logger
		ActorID() string
		ActorName() string
	}
)

type handlerCtx struct {
	context.Context
	log  *slog.Logger
	id   string
	name string
}

func (hc *handlerCtx) Log() *slog.Logger { return hc.log }
func (hc *handlerCtx) ActorID() string   { return hc.id }
func (hc *handlerCtx) ActorName() string { return hc.name }

var _ HandlerCtx = (*handlerCtx)(nil)

// task is a handler invocation holding the baton.
type task struct {
	rt      *Runtime
	actorID string
	holding atomic.Bool
}

type taskKey struct{}

func withTask(ctx context.Context, t *task) context.Context {
	return context.WithValue(ctx, taskKey{}, t)
}

func taskFrom(ctx context.Context) *task {
	t, _ := ctx.Value(taskKey{}).(*task)
	return t
}

// Suspend runs wait as a suspension point. Called from a handler, the
// baton is handed to other actors until wait returns; called from anywhere
// else it simply runs wait.
func Suspend(ctx context.Context, wait func() error) error {
	t := taskFrom(ctx)
	if t == nil || !t.holding.CompareAndSwap(true, false) {
		return wait()
	}
	t.rt.release()
	defer func() {
		t.rt.reacquire()
		t.holding.Store(true)
	}()
	return wait()
}
