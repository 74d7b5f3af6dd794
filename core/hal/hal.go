// Package hal declares the peripheral contracts the runtime and drivers
// consume. Implementations live next to the hardware; core/hal/sim provides
// simulated ones for tests and the host board.
package hal

import "time"

// CountdownTimer is a one-shot hardware countdown timer. Start arms it to
// raise its update interrupt after d; a later Start re-arms it and discards
// the previous countdown.
type CountdownTimer interface {
	Start(d time.Duration)
	ClearUpdateInterruptFlag()
}

// CountdownCounter is implemented by countdown timers that can tell how much
// of the running countdown has passed.
type CountdownCounter interface {
	Elapsed() time.Duration
}

// SpiBus performs a full-duplex transfer in place: words are shifted out and
// overwritten with the words shifted in.
type SpiBus interface {
	Transfer(words []byte) error
}

// I2cBus is a blocking I2C master.
type I2cBus interface {
	Write(address uint8, data []byte) error
	WriteRead(address uint8, data []byte, buf []byte) error
}

// OutputPin is a digital output.
type OutputPin interface {
	SetHigh() error
	SetLow() error
}
