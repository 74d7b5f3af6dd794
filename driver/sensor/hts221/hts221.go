// Package hts221 accesses registers of the ST HTS221 humidity and
// temperature sensor over an I2C package.
package hts221

import (
	"context"
	"fmt"
)

// Address is the fixed 7-bit I2C address of the HTS221.
const Address uint8 = 0x5f

// Bus is the part of an I2C package the register helpers need.
type Bus interface {
	Write(ctx context.Context, address uint8, data []byte) error
	WriteRead(ctx context.Context, address uint8, data []byte, buf []byte) error
}

// ModifyError reports which half of a read-modify-write failed.
type ModifyError struct {
	Op  string
	Err error
}

func (e *ModifyError) Error() string { return fmt.Sprintf("hts221: modify: %s: %v", e.Op, e.Err) }

func (e *ModifyError) Unwrap() error { return e.Err }

func readRegister(ctx context.Context, bus Bus, address, reg uint8) (uint8, error) {
	buf := make([]byte, 1)
	if err := bus.WriteRead(ctx, address, []byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeRegister(ctx context.Context, bus Bus, address, reg, value uint8) error {
	return bus.Write(ctx, address, []byte{reg, value})
}
