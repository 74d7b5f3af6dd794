package timer

import (
	"context"
	"sync"

	"github.com/lulf/drogue-device/core/actor"
)

// Deadline is the awaitable of one delay slot. The slot generation tells a
// freed (and possibly reused) slot apart from the one this Deadline occupies.
type Deadline struct {
	m     *Multiplexer
	index int
	gen   uint64

	done bool
}

func expired() *Deadline { return &Deadline{done: true} }

// Poll reports whether the deadline has passed. If it has not, resume is
// stored in the slot, replacing any earlier one, and is called from the
// timer interrupt when the slot expires.
func (d *Deadline) Poll(resume func()) bool {
	if d.done {
		return true
	}
	d.m.line.Free(func() {
		s := &d.m.delays[d.index]
		if !s.occupied || s.gen != d.gen {
			d.done = true
			return
		}
		s.resume = resume
	})
	return d.done
}

// Wait suspends until the deadline passes or ctx is done. Giving up does
// not free the slot; it stays occupied until it expires.
func (d *Deadline) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	var once sync.Once
	if d.Poll(func() { once.Do(func() { close(ch) }) }) {
		return nil
	}
	return actor.Suspend(ctx, func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			d.done = true
			return nil
		}
	})
}
