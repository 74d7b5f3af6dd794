package actor

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

type (
	OnPanic func(recovered any, stack []byte, msg any)

	// Options configures a Runtime.
	Options struct {
		Logger  *slog.Logger
		Metrics Metrics
		OnPanic OnPanic
		// MailboxSize is the default mailbox capacity of mounted actors.
		MailboxSize int
	}
)

// mountable is the type-erased view of a mounted Context.
type mountable interface {
	actorID() string
	actorName() string
	run(ctx context.Context) error
}

// Runtime is the single cooperative execution context of a device. Every
// mounted actor runs its handlers under the runtime baton, so at most one
// handler body executes at any instant. A handler gives the baton away only
// while it is suspended in Request or another Suspend-based wait.
type Runtime struct {
	log         *slog.Logger
	metrics     Metrics
	onPanic     OnPanic
	mailboxSize int

	baton chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	actors  []mountable
	group   *errgroup.Group
}

func NewRuntime(opts Options) *Runtime {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = 16
	}
	if opts.OnPanic == nil {
		log := opts.Logger
		opts.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("msg", msg))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		log:         opts.Logger,
		metrics:     opts.Metrics,
		onPanic:     opts.OnPanic,
		mailboxSize: opts.MailboxSize,
		baton:       make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs every mounted actor. The actor population is fixed from here
// on: mounting after Start panics. The runtime stops when ctx is done or
// Stop is called.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true

	context.AfterFunc(ctx, r.cancel)

	g, gctx := errgroup.WithContext(r.ctx)
	for _, a := range r.actors {
		g.Go(func() error { return a.run(gctx) })
	}
	r.group = g

	r.log.Info("runtime started", slog.Int("actors", len(r.actors)))
	return nil
}

// Stop cancels all actors and waits for their loops to return.
func (r *Runtime) Stop() error {
	r.cancel()
	return r.Wait()
}

// Wait blocks until all actor loops have returned.
func (r *Runtime) Wait() error {
	r.mu.Lock()
	g := r.group
	r.mu.Unlock()
	if g == nil {
		<-r.ctx.Done()
		return nil
	}
	return g.Wait()
}

// Done is closed when the runtime stops.
func (r *Runtime) Done() <-chan struct{} { return r.ctx.Done() }

// Actors lists the names of the mounted actors in mount order.
func (r *Runtime) Actors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.actors))
	for _, a := range r.actors {
		names = append(names, a.actorName())
	}
	return names
}

func (r *Runtime) Log() *slog.Logger { return r.log }

func (r *Runtime) isStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *Runtime) stopped() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

func (r *Runtime) mount(a mountable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		panic("actor: mount of " + a.actorName() + " after runtime start")
	}
	r.actors = append(r.actors, a)
}

// acquire takes the baton.
func (r *Runtime) acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrStopped
	case r.baton <- struct{}{}:
		return nil
	}
}

// reacquire takes the baton back after a suspension. It does not give up on
// cancellation: the holder must own the baton again before its loop releases it.
func (r *Runtime) reacquire() { r.baton <- struct{}{} }

func (r *Runtime) release() { <-r.baton }
