package sim

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lulf/drogue-device/core/irq"
)

func TestStepTimer(t *testing.T) {
	line := irq.NewLine("tim", nil)
	st := NewStepTimer(line)
	fired := 0
	line.Attach(irq.HandlerFunc(func() {
		fired++
		st.ClearUpdateInterruptFlag()
	}))

	_, ok := st.Expire()
	require.False(t, ok)

	st.Start(50 * time.Millisecond)
	st.Start(20 * time.Millisecond)
	d, ok := st.Armed()
	require.True(t, ok)
	require.Equal(t, 20*time.Millisecond, d)

	d, ok = st.Expire()
	require.True(t, ok)
	require.Equal(t, 20*time.Millisecond, d)
	require.Equal(t, 1, fired)
	require.Equal(t, 1, st.Clears())
	require.Equal(t, 20*time.Millisecond, st.Now())
	require.Equal(t, []time.Duration{50 * time.Millisecond, 20 * time.Millisecond}, st.Starts())

	_, ok = st.Armed()
	require.False(t, ok)
}

func TestWallTimer_RestartDropsStaleCountdown(t *testing.T) {
	line := irq.NewLine("tim", nil)
	wt := NewWallTimer(line)
	var fired atomic.Int32
	line.Attach(irq.HandlerFunc(func() {
		fired.Add(1)
		wt.ClearUpdateInterruptFlag()
	}))

	wt.Start(5 * time.Millisecond)
	wt.Start(40 * time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	wt.Stop()
}

func TestPin(t *testing.T) {
	p := NewPin()
	require.NoError(t, p.SetHigh())
	require.True(t, p.IsHigh())
	require.NoError(t, p.SetLow())
	require.False(t, p.IsHigh())
	require.Equal(t, []bool{true, false}, p.History())
	require.True(t, <-p.Changes())
	require.False(t, <-p.Changes())
}

func TestSpiLoopback(t *testing.T) {
	bus := NewSpiLoopback(0)
	bus.Respond(func(words []byte) error {
		for i := range words {
			words[i] ^= 0xFF
		}
		return nil
	})
	words := []byte{0x00, 0x0F}
	require.NoError(t, bus.Transfer(words))
	require.Equal(t, []byte{0xFF, 0xF0}, words)
	require.Equal(t, [][]byte{{0x00, 0x0F}}, bus.Sent())
	require.Equal(t, 1, bus.Transfers())
	require.Equal(t, 1, bus.PeakInflight())
}

func TestI2cRegisters(t *testing.T) {
	bus := NewI2cRegisters(0x5F)
	require.NoError(t, bus.Write(0x5F, []byte{0x20, 0x81, 0x02}))
	require.Equal(t, uint8(0x81), bus.Peek(0x5F, 0x20))

	buf := make([]byte, 2)
	require.NoError(t, bus.WriteRead(0x5F, []byte{0x20}, buf))
	require.Equal(t, []byte{0x81, 0x02}, buf)

	require.ErrorIs(t, bus.Write(0x10, []byte{0}), ErrNoDevice)

	boom := errors.New("nack")
	bus.Fail(boom)
	require.ErrorIs(t, bus.WriteRead(0x5F, []byte{0x20}, buf), boom)
}
