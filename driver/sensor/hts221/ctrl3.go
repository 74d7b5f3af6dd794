package hts221

import "context"

// RegCtrl3 is CTRL_REG3, the data-ready output control register.
const RegCtrl3 uint8 = 0x22

const (
	ctrl3ActiveLow = 1 << 7
	ctrl3OpenDrain = 1 << 6
	ctrl3DrdyEn    = 1 << 2
)

// ReadyMode is the output stage of the DRDY pin.
type ReadyMode int

const (
	PushPull ReadyMode = iota
	OpenDrain
)

// ActiveState is the DRDY pin polarity.
type ActiveState int

const (
	ActiveHigh ActiveState = iota
	ActiveLow
)

// Ctrl3 is the decoded CTRL_REG3.
type Ctrl3 struct {
	Active ActiveState
	Mode   ReadyMode
	Enable bool
}

// DecodeCtrl3 decodes a CTRL_REG3 value. Reserved bits are dropped.
func DecodeCtrl3(v uint8) Ctrl3 {
	c := Ctrl3{Enable: v&ctrl3DrdyEn != 0}
	if v&ctrl3ActiveLow != 0 {
		c.Active = ActiveLow
	}
	if v&ctrl3OpenDrain != 0 {
		c.Mode = OpenDrain
	}
	return c
}

// Encode returns the register value.
func (c Ctrl3) Encode() uint8 {
	var v uint8
	if c.Active == ActiveLow {
		v |= ctrl3ActiveLow
	}
	if c.Mode == OpenDrain {
		v |= ctrl3OpenDrain
	}
	if c.Enable {
		v |= ctrl3DrdyEn
	}
	return v
}

// ReadCtrl3 reads CTRL_REG3 from the sensor at address.
func ReadCtrl3(ctx context.Context, bus Bus, address uint8) (Ctrl3, error) {
	v, err := readRegister(ctx, bus, address, RegCtrl3)
	if err != nil {
		return Ctrl3{}, err
	}
	return DecodeCtrl3(v), nil
}

// WriteCtrl3 writes c to CTRL_REG3 of the sensor at address.
func WriteCtrl3(ctx context.Context, bus Bus, address uint8, c Ctrl3) error {
	return writeRegister(ctx, bus, address, RegCtrl3, c.Encode())
}

// ModifyCtrl3 reads CTRL_REG3, applies f and writes the result back.
// Failures are *ModifyError naming the failed half.
func ModifyCtrl3(ctx context.Context, bus Bus, address uint8, f func(c *Ctrl3)) error {
	c, err := ReadCtrl3(ctx, bus, address)
	if err != nil {
		return &ModifyError{Op: "read", Err: err}
	}
	f(&c)
	if err := WriteCtrl3(ctx, bus, address, c); err != nil {
		return &ModifyError{Op: "write", Err: err}
	}
	return nil
}
