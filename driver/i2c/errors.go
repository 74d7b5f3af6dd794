package i2c

import (
	"errors"
	"fmt"
)

// Kind classifies an I2C peripheral failure.
type Kind int

const (
	Other Kind = iota
	Bus
	ArbitrationLoss
	Nack
	Overrun
)

func (k Kind) String() string {
	switch k {
	case Bus:
		return "bus error"
	case ArbitrationLoss:
		return "arbitration loss"
	case Nack:
		return "nack"
	case Overrun:
		return "overrun"
	default:
		return "other"
	}
}

// Error is a failed transaction, matched by Kind with errors.Is.
type Error struct {
	Kind    Kind
	Address uint8
	Cause   error
}

var (
	ErrBus             = &Error{Kind: Bus}
	ErrArbitrationLoss = &Error{Kind: ArbitrationLoss}
	ErrNack            = &Error{Kind: Nack}
	ErrOverrun         = &Error{Kind: Overrun}
)

func (e *Error) Error() string {
	msg := fmt.Sprintf("i2c 0x%02x: %s", e.Address, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Cause == nil
}

func classify(address uint8, err error) *Error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return &Error{Kind: ie.Kind, Address: address, Cause: ie.Cause}
	}
	return &Error{Kind: Other, Address: address, Cause: err}
}
