package actor

import "errors"

var (
	// ErrMailboxFull is returned by Notify when the target mailbox has no room.
	// Notify never waits for room.
	ErrMailboxFull = errors.New("actor: mailbox full")
	// ErrStopped is returned once the runtime has stopped.
	ErrStopped = errors.New("actor: runtime stopped")
	// ErrNoHandler is returned when the target has no handler for the message type.
	ErrNoHandler = errors.New("actor: no handler for message")
	// ErrSelfRequest is returned when a handler requests its own actor,
	// which can never complete while the handler holds the actor state.
	ErrSelfRequest = errors.New("actor: request to self")
	// ErrHandlerPanic is returned to a requester whose handler panicked.
	ErrHandlerPanic = errors.New("actor: handler panicked")
	// ErrResponseType is returned when the handler response is not of the requested type.
	ErrResponseType = errors.New("actor: unexpected response type")
	// ErrAlreadyStarted is returned by Runtime.Start on a started runtime.
	ErrAlreadyStarted = errors.New("actor: runtime already started")
)
