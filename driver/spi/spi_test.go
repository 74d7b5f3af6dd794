package spi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal/sim"
)

func mountSpi(t *testing.T, bus *sim.SpiLoopback) Spi {
	t.Helper()
	rt := actor.NewRuntime(actor.Options{})
	s := Mount(rt, "spi1", bus, Options{})
	require.NoError(t, rt.Start(t.Context()))
	t.Cleanup(func() { _ = rt.Stop() })
	return s
}

func TestSpi_Transfer(t *testing.T) {
	bus := sim.NewSpiLoopback(0)
	bus.Respond(func(words []byte) error {
		for i := range words {
			words[i] = ^words[i]
		}
		return nil
	})
	s := mountSpi(t, bus)

	got, err := s.Transfer(t.Context(), []byte{0x0f, 0xaa})
	require.NoError(t, err)
	require.Equal(t, []byte{0xf0, 0x55}, got)
	require.Equal(t, [][]byte{{0x0f, 0xaa}}, bus.Sent())
}

func TestSpi_ErrorKinds(t *testing.T) {
	bus := sim.NewSpiLoopback(0)
	s := mountSpi(t, bus)

	tests := []struct {
		name   string
		busErr error
		want   error
		kind   Kind
	}{
		{name: "overrun", busErr: ErrOverrun, want: ErrOverrun, kind: Overrun},
		{name: "mode fault", busErr: &Error{Kind: ModeFault}, want: ErrModeFault, kind: ModeFault},
		{name: "crc", busErr: ErrCrc, want: ErrCrc, kind: Crc},
		{name: "other", busErr: errors.New("glitch"), kind: Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus.Respond(func([]byte) error { return tt.busErr })
			_, err := s.Transfer(t.Context(), []byte{1})
			require.Error(t, err)

			var se *Error
			require.ErrorAs(t, err, &se)
			require.Equal(t, tt.kind, se.Kind)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			} else {
				require.ErrorIs(t, err, tt.busErr)
				require.NotErrorIs(t, err, ErrOverrun)
			}
		})
	}
}

func TestSpi_TransfersNeverOverlap(t *testing.T) {
	bus := sim.NewSpiLoopback(300 * time.Microsecond)
	s := mountSpi(t, bus)

	const n = 16
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Transfer(t.Context(), []byte{byte(i)})
			assert.NoError(t, err)
			assert.Equal(t, []byte{byte(i)}, got)
		}()
	}
	wg.Wait()

	require.Equal(t, n, bus.Transfers())
	require.Equal(t, 1, bus.PeakInflight())
}

func TestError_Message(t *testing.T) {
	require.Equal(t, "spi: overrun", ErrOverrun.Error())
	err := &Error{Kind: Other, Cause: errors.New("glitch")}
	require.Equal(t, "spi: other: glitch", err.Error())
}
