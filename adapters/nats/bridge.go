package nats

import (
	"context"
	"fmt"

	"github.com/lulf/drogue-device/core/actor"
)

// Bridge delivers command as a notification of type M to dest. A command
// sent as a NATS request is answered once the notification is queued.
func Bridge[A any, M any](ctx context.Context, l *Link, command string, dest actor.Address[A]) (*Subscription, error) {
	return l.subscribe(ctx, command, func(data []byte) (any, error) {
		var m M
		if err := l.codec.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", command, err)
		}
		return nil, actor.Notify(dest, m)
	})
}

// Serve answers command with the response of dest to the request M. The
// request waits for dest like any other requester outside the runtime.
func Serve[R any, A any, M any](ctx context.Context, l *Link, command string, dest actor.Address[A]) (*Subscription, error) {
	return l.subscribe(ctx, command, func(data []byte) (any, error) {
		var m M
		if err := l.codec.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", command, err)
		}
		r, err := actor.Request[R](ctx, dest, m)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
