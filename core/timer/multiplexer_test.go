package timer

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lulf/drogue-device/core/hal/sim"
	"github.com/lulf/drogue-device/core/irq"
)

const ms = time.Millisecond

func newMux(t *testing.T) (*Multiplexer, *sim.StepTimer) {
	t.Helper()
	line := irq.NewLine("tim2", nil)
	hw := sim.NewStepTimer(line)
	return NewMultiplexer(hw, line, Options{}), hw
}

// requireSmallestCountdown checks that the running countdown is the smallest
// remaining time of all occupied slots.
func requireSmallestCountdown(t *testing.T, m *Multiplexer) {
	t.Helper()
	remaining := m.Remaining()
	cur, ok := m.CurrentDeadline()
	if len(remaining) == 0 {
		require.False(t, ok, "deadline armed without occupied slots")
		return
	}
	require.True(t, ok, "occupied slots without deadline")
	require.Equal(t, slices.Min(remaining), cur)
}

func TestMultiplexer_TwoDelays(t *testing.T) {
	m, hw := newMux(t)

	slow, err := m.Delay(100 * ms)
	require.NoError(t, err)
	fast, err := m.Delay(50 * ms)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{100 * ms, 50 * ms}, hw.Starts())

	resumed := false
	require.False(t, fast.Poll(func() { resumed = true }))
	require.False(t, slow.Poll(nil))

	_, ok := hw.Expire()
	require.True(t, ok)
	require.True(t, resumed)
	require.True(t, fast.Poll(nil))
	require.False(t, slow.Poll(nil))

	cur, ok := m.CurrentDeadline()
	require.True(t, ok)
	require.Equal(t, 50*ms, cur)
	armed, ok := hw.Armed()
	require.True(t, ok)
	require.Equal(t, 50*ms, armed)

	hw.Expire()
	require.True(t, slow.Poll(nil))
	_, ok = m.CurrentDeadline()
	require.False(t, ok)
	_, ok = hw.Armed()
	require.False(t, ok)

	require.Equal(t, []time.Duration{100 * ms, 50 * ms, 50 * ms}, hw.Starts())
	require.Equal(t, 2, hw.Clears())
}

func TestMultiplexer_LongerDelayKeepsCountdown(t *testing.T) {
	m, hw := newMux(t)

	_, err := m.Delay(20 * ms)
	require.NoError(t, err)
	_, err = m.Delay(80 * ms)
	require.NoError(t, err)
	_, err = m.Delay(20 * ms)
	require.NoError(t, err)

	require.Equal(t, []time.Duration{20 * ms}, hw.Starts())
	requireSmallestCountdown(t, m)
}

func TestMultiplexer_Capacity(t *testing.T) {
	m, hw := newMux(t)

	var deadlines []*Deadline
	for i := 1; i <= Capacity; i++ {
		dl, err := m.Delay(time.Duration(i) * 10 * ms)
		require.NoError(t, err)
		deadlines = append(deadlines, dl)
	}
	before := m.Remaining()

	dl, err := m.Delay(5 * ms)
	require.ErrorIs(t, err, ErrNoCapacity)
	require.Nil(t, dl)
	require.Equal(t, before, m.Remaining())
	requireSmallestCountdown(t, m)

	delays, schedules := m.Occupied()
	require.Equal(t, Capacity, delays)
	require.Equal(t, 0, schedules)

	// schedule slots are a separate pool
	for i := 0; i < Capacity; i++ {
		require.NoError(t, m.Schedule(ms, "tick", func() error { return nil }))
	}
	require.ErrorIs(t, m.Schedule(ms, "tick", func() error { return nil }), ErrNoCapacity)

	hw.Expire()
	_, schedules = m.Occupied()
	require.Equal(t, 0, schedules)
	require.True(t, deadlines[0].Poll(nil))

	// a freed slot is usable again
	_, err = m.Delay(5 * ms)
	require.NoError(t, err)
}

func TestMultiplexer_SlotReuse(t *testing.T) {
	m, hw := newMux(t)

	first, err := m.Delay(10 * ms)
	require.NoError(t, err)
	hw.Expire()

	second, err := m.Delay(30 * ms)
	require.NoError(t, err)
	require.Equal(t, first.index, second.index)

	require.True(t, first.Poll(nil))
	require.False(t, second.Poll(nil))
}

func TestMultiplexer_Schedule(t *testing.T) {
	m, hw := newMux(t)

	var fired []string
	deliver := func(s string) func() error {
		return func() error {
			fired = append(fired, s)
			return nil
		}
	}
	require.NoError(t, m.Schedule(30*ms, "b", deliver("b")))
	require.NoError(t, m.Schedule(10*ms, "a", deliver("a")))
	dl, err := m.Delay(20 * ms)
	require.NoError(t, err)

	hw.Expire()
	require.Equal(t, []string{"a"}, fired)
	requireSmallestCountdown(t, m)

	hw.Expire()
	require.True(t, dl.Poll(nil))
	require.Equal(t, []string{"a"}, fired)

	hw.Expire()
	require.Equal(t, []string{"a", "b"}, fired)
	requireSmallestCountdown(t, m)
}

func TestMultiplexer_FailedDeliveryFreesSlot(t *testing.T) {
	m, hw := newMux(t)
	require.NoError(t, m.Schedule(10*ms, "x", func() error { return errors.New("mailbox full") }))
	hw.Expire()
	_, schedules := m.Occupied()
	require.Equal(t, 0, schedules)
}

func TestMultiplexer_NonPositive(t *testing.T) {
	m, hw := newMux(t)

	dl, err := m.Delay(0)
	require.NoError(t, err)
	require.True(t, dl.Poll(nil))
	require.NoError(t, dl.Wait(t.Context()))

	delivered := false
	require.NoError(t, m.Schedule(-ms, "now", func() error {
		delivered = true
		return nil
	}))
	require.True(t, delivered)
	require.Empty(t, hw.Starts())
}

func TestMultiplexer_SpuriousInterrupt(t *testing.T) {
	line := irq.NewLine("tim2", nil)
	hw := sim.NewStepTimer(line)
	m := NewMultiplexer(hw, line, Options{})

	line.Raise()
	_, ok := m.CurrentDeadline()
	require.False(t, ok)
	require.Equal(t, 1, hw.Clears())
	require.Empty(t, hw.Starts())
}

func TestMultiplexer_WaitResumedByInterrupt(t *testing.T) {
	m, hw := newMux(t)

	dl, err := m.Delay(40 * ms)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- dl.Wait(t.Context()) }()

	// the waiter may register its resumer before or after the interrupt
	time.Sleep(5 * ms)
	hw.Expire()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not resumed")
	}
}

func TestMultiplexer_AbandonedWaitKeepsSlot(t *testing.T) {
	m, hw := newMux(t)

	dl, err := m.Delay(40 * ms)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, dl.Wait(ctx), context.Canceled)

	delays, _ := m.Occupied()
	require.Equal(t, 1, delays)

	hw.Expire()
	delays, _ = m.Occupied()
	require.Equal(t, 0, delays)
}

func TestMultiplexer_RandomInterleavings(t *testing.T) {
	m, hw := newMux(t)
	rnd := rand.New(rand.NewPCG(7, 11))

	type pending struct {
		dl       *Deadline
		due      time.Duration
		resolved bool
	}
	var waiters []*pending
	var scheduledDue []time.Duration
	var deliveredAt []time.Duration

	for step := 0; step < 2000; step++ {
		switch op := rnd.IntN(3); op {
		case 0:
			d := time.Duration(1+rnd.IntN(200)) * ms
			dl, err := m.Delay(d)
			if errors.Is(err, ErrNoCapacity) {
				delays, _ := m.Occupied()
				require.Equal(t, Capacity, delays)
				continue
			}
			require.NoError(t, err)
			waiters = append(waiters, &pending{dl: dl, due: hw.Now() + d})
		case 1:
			d := time.Duration(1+rnd.IntN(200)) * ms
			due := hw.Now() + d
			err := m.Schedule(d, "evt", func() error {
				deliveredAt = append(deliveredAt, hw.Now())
				scheduledDue = append(scheduledDue, due)
				return nil
			})
			if err != nil {
				require.ErrorIs(t, err, ErrNoCapacity)
			}
		case 2:
			hw.Expire()
		}
		requireSmallestCountdown(t, m)

		for _, w := range waiters {
			if !w.resolved && w.dl.Poll(nil) {
				w.resolved = true
				require.GreaterOrEqual(t, hw.Now(), w.due)
			}
		}
	}

	for i, at := range deliveredAt {
		require.GreaterOrEqual(t, at, scheduledDue[i])
	}
}

// progressTimer is a step timer that also reports how far the running
// countdown has progressed.
type progressTimer struct {
	*sim.StepTimer
	progress time.Duration
}

func (p *progressTimer) Elapsed() time.Duration { return p.progress }

func TestMultiplexer_ProgressStretchesLaterDeadline(t *testing.T) {
	line := irq.NewLine("tim2", nil)
	hw := &progressTimer{StepTimer: sim.NewStepTimer(line)}
	m := NewMultiplexer(hw, line, Options{})

	first, err := m.Delay(40 * ms)
	require.NoError(t, err)

	// 30ms into the countdown a 50ms delay is due 40ms after it ends
	hw.progress = 30 * ms
	second, err := m.Delay(50 * ms)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{40 * ms, 80 * ms}, m.Remaining())
	require.Equal(t, []time.Duration{40 * ms}, hw.Starts())

	// a 5ms delay restarts the countdown and rebases the others to now
	third, err := m.Delay(5 * ms)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{10 * ms, 50 * ms, 5 * ms}, m.Remaining())
	requireSmallestCountdown(t, m)

	hw.progress = 0
	hw.Expire()
	require.True(t, third.Poll(nil))
	require.False(t, first.Poll(nil))
	hw.Expire()
	require.True(t, first.Poll(nil))
	require.False(t, second.Poll(nil))
	hw.Expire()
	require.True(t, second.Poll(nil))
	require.Equal(t, []time.Duration{40 * ms, 5 * ms, 5 * ms, 40 * ms}, hw.Starts())
	requireSmallestCountdown(t, m)
}
