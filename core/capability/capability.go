// Package capability declares what example actors need from their
// collaborators, independent of the concrete actor providing it.
package capability

import (
	"context"
	"time"

	"github.com/lulf/drogue-device/core/actor"
)

// Switchable is something that can be turned on and off, like an LED.
// Both operations are notifications and never suspend.
type Switchable interface {
	TurnOn() error
	TurnOff() error
}

// Scheduler delivers a notification once a delay has passed.
type Scheduler interface {
	Schedule(delay time.Duration, d actor.Delivery) error
}

// Delayer suspends the caller for a duration.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}
