package spi

import (
	"errors"
	"fmt"
)

// Kind classifies an SPI peripheral failure.
type Kind int

const (
	Other Kind = iota
	Overrun
	ModeFault
	Crc
)

func (k Kind) String() string {
	switch k {
	case Overrun:
		return "overrun"
	case ModeFault:
		return "mode fault"
	case Crc:
		return "crc"
	default:
		return "other"
	}
}

// Error is a failed transfer. Errors match with errors.Is by Kind, so
// errors.Is(err, spi.ErrOverrun) holds for any overrun.
type Error struct {
	Kind  Kind
	Cause error
}

var (
	ErrOverrun   = &Error{Kind: Overrun}
	ErrModeFault = &Error{Kind: ModeFault}
	ErrCrc       = &Error{Kind: Crc}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("spi: %s: %v", e.Kind, e.Cause)
	}
	return "spi: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Cause == nil
}

// classify turns a bus error into an *Error, keeping its kind when the bus
// already reported one.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: Other, Cause: err}
}
