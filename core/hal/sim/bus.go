package sim

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lulf/drogue-device/core/hal"
)

// ErrNoDevice is returned by I2cRegisters for an address without a device.
var ErrNoDevice = errors.New("sim: no device at address")

// busProbe tracks overlapping transfers so tests can prove serialization.
type busProbe struct {
	latency  atomic.Int64
	inflight atomic.Int32
	peak     atomic.Int32
	count    atomic.Int64
}

func (b *busProbe) enter() {
	n := b.inflight.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	b.count.Add(1)
	if d := time.Duration(b.latency.Load()); d > 0 {
		time.Sleep(d)
	}
}

// Latency makes every following transfer take d.
func (b *busProbe) Latency(d time.Duration) { b.latency.Store(int64(d)) }

func (b *busProbe) leave() { b.inflight.Add(-1) }

// PeakInflight is the largest number of transfers observed at once.
func (b *busProbe) PeakInflight() int { return int(b.peak.Load()) }

// Transfers counts completed and running transfers.
func (b *busProbe) Transfers() int { return int(b.count.Load()) }

// SpiLoopback answers every transfer through Respond, or echoes the words
// back when Respond is nil.
type SpiLoopback struct {
	busProbe

	mu      sync.Mutex
	respond func(words []byte) error
	log     [][]byte
}

// NewSpiLoopback returns a bus that holds each transfer for latency.
func NewSpiLoopback(latency time.Duration) *SpiLoopback {
	s := &SpiLoopback{}
	s.Latency(latency)
	return s
}

// Respond installs the device behaviour.
func (s *SpiLoopback) Respond(f func(words []byte) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond = f
}

func (s *SpiLoopback) Transfer(words []byte) error {
	s.enter()
	defer s.leave()

	s.mu.Lock()
	s.log = append(s.log, append([]byte(nil), words...))
	respond := s.respond
	s.mu.Unlock()

	if respond == nil {
		return nil
	}
	return respond(words)
}

// Sent returns the words shifted out by each transfer, oldest first.
func (s *SpiLoopback) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.log...)
}

// I2cRegisters simulates register-file devices: a write sets the register
// pointer from its first byte and stores the rest; a write-read sets the
// pointer and reads from there.
type I2cRegisters struct {
	busProbe

	mu      sync.Mutex
	devices map[uint8]*[256]byte
	fail    error
}

// NewI2cRegisters returns a bus with devices at the given addresses.
func NewI2cRegisters(addresses ...uint8) *I2cRegisters {
	b := &I2cRegisters{devices: make(map[uint8]*[256]byte)}
	for _, a := range addresses {
		b.devices[a] = new([256]byte)
	}
	return b
}

// Fail makes every following transfer return err until cleared with nil.
func (b *I2cRegisters) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

// Poke sets a register directly.
func (b *I2cRegisters) Poke(address, reg, value uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.devices[address]; ok {
		d[reg] = value
	}
}

// Peek reads a register directly.
func (b *I2cRegisters) Peek(address, reg uint8) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.devices[address]; ok {
		return d[reg]
	}
	return 0
}

func (b *I2cRegisters) Write(address uint8, data []byte) error {
	b.enter()
	defer b.leave()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	d, ok := b.devices[address]
	if !ok {
		return ErrNoDevice
	}
	if len(data) == 0 {
		return nil
	}
	reg := data[0]
	for i, v := range data[1:] {
		d[reg+uint8(i)] = v
	}
	return nil
}

func (b *I2cRegisters) WriteRead(address uint8, data []byte, buf []byte) error {
	b.enter()
	defer b.leave()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	d, ok := b.devices[address]
	if !ok {
		return ErrNoDevice
	}
	var reg uint8
	if len(data) > 0 {
		reg = data[0]
	}
	for i := range buf {
		buf[i] = d[reg+uint8(i)]
	}
	return nil
}

var (
	_ hal.SpiBus = (*SpiLoopback)(nil)
	_ hal.I2cBus = (*I2cRegisters)(nil)
)
