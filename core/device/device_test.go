package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal"
	"github.com/lulf/drogue-device/core/hal/sim"
	"github.com/lulf/drogue-device/core/irq"
)

type (
	ping struct{ Seq int }
	pong struct{ Seq int }
)

func stepTimer(hw **sim.StepTimer) TimerConfig {
	return TimerConfig{Hardware: func(line *irq.Line) hal.CountdownTimer {
		*hw = sim.NewStepTimer(line)
		return *hw
	}}
}

func TestDevice(t *testing.T) {
	var addr actor.Address[int]
	dev, err := Run(Config{Context: t.Context()}, func(d *Device) {
		addr = actor.New("echo", 0,
			actor.HandleRequest(func(hc actor.HandlerCtx, n int, p ping) actor.Response[int, pong] {
				return actor.Reply(n+1, pong{Seq: p.Seq + 1})
			}),
		).Mount(d.Runtime())
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Stop() })

	require.Contains(t, dev.ID(), "device-")
	require.Equal(t, []string{"timer", "echo"}, dev.Runtime().Actors())

	pr, err := actor.Request[pong](t.Context(), addr, ping{Seq: 1})
	require.NoError(t, err)
	require.Equal(t, 2, pr.Seq)
}

func TestDevice_Timer(t *testing.T) {
	var hw *sim.StepTimer
	dev, err := Run(Config{ID: "board", Timer: stepTimer(&hw)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Stop() })
	require.Equal(t, "board", dev.ID())

	done := make(chan error, 1)
	go func() { done <- dev.Timer().Delay(t.Context(), 20*time.Millisecond) }()

	require.Eventually(t, func() bool {
		d, ok := hw.Armed()
		return ok && d == 20*time.Millisecond
	}, time.Second, time.Millisecond)
	hw.Expire()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("delay not resolved")
	}
	_, ok := dev.Multiplexer().CurrentDeadline()
	require.False(t, ok)
}

func TestDevice_Stop(t *testing.T) {
	dev, err := Run(Config{})
	require.NoError(t, err)

	require.NoError(t, dev.Stop())
	select {
	case <-dev.Done():
	case <-time.After(time.Second):
		t.Fatal("device not stopped")
	}
	require.ErrorIs(t, dev.Context().Err(), context.Canceled)
}

func TestDevice_StopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dev, err := Run(Config{Context: ctx})
	require.NoError(t, err)

	cancel()
	select {
	case <-dev.Done():
	case <-time.After(time.Second):
		t.Fatal("device outlived its context")
	}
	require.NoError(t, dev.Stop())
}
