package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal/sim"
	"github.com/lulf/drogue-device/core/irq"
	"github.com/lulf/drogue-device/core/timer"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewActorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewActorMetrics(reg)

	require.NotNil(t, m)

	tm := m.MessageDuration("led", "led.TurnOn")
	assert.NotNil(t, tm)
	tm.ObserveDuration()

	m.MessageProcessed("led", "led.TurnOn", true)
	m.MessageProcessed("led", "led.TurnOn", false)
	m.MessagePanic("led", "led.TurnOn")
	m.MessageDropped("led", "led.TurnOff")
	m.MailboxDepth("led", 3)

	names := gatherNames(t, reg)
	assert.True(t, names["drogue_actor_message_duration_seconds"])
	assert.True(t, names["drogue_actor_messages_total"])
	assert.True(t, names["drogue_actor_dropped_total"])
	assert.True(t, names["drogue_actor_mailbox_depth"])

	am := m.(*actorMetrics)
	assert.Equal(t, 3.0, testutil.ToFloat64(am.mailboxDepth.WithLabelValues("led")))
	assert.Equal(t, 1.0, testutil.ToFloat64(am.messagesTotal.WithLabelValues("led", "led.TurnOn", "false")))
}

func TestNewTimerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTimerMetrics(reg)

	m.SlotsOccupied("delay", 4)
	m.CapacityExhausted("schedule")
	m.Expired("delay")
	m.Reconciliation()
	m.DeliveryFailed()

	names := gatherNames(t, reg)
	assert.True(t, names["drogue_timer_slots_occupied"])
	assert.True(t, names["drogue_timer_capacity_exhausted_total"])
	assert.True(t, names["drogue_timer_reconciliations_total"])

	tm := m.(*timerMetrics)
	assert.Equal(t, 4.0, testutil.ToFloat64(tm.slotsOccupied.WithLabelValues("delay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tm.deliveryFailed))
}

func TestNewArbiterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewArbiterMetrics(reg)

	tm := m.TransactionDuration("spi1-arbiter")
	assert.NotNil(t, tm)
	tm.ObserveDuration()

	m.TransactionCompleted("spi1-arbiter", true)
	m.Inflight("spi1-arbiter", 1)

	names := gatherNames(t, reg)
	assert.True(t, names["drogue_arbiter_transaction_duration_seconds"])
	assert.True(t, names["drogue_arbiter_transactions_total"])
	assert.True(t, names["drogue_arbiter_inflight"])
}

func TestNewAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAllMetrics(reg)

	require.NotNil(t, m)
	require.NotNil(t, m.Actor)
	require.NotNil(t, m.Timer)
	require.NotNil(t, m.Arbiter)

	m.Actor.MessageProcessed("test", "test", true)
	m.Timer.Reconciliation()
	m.Arbiter.Inflight("test", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestTimerMetrics_WiredIntoMultiplexer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAllMetrics(reg)

	line := irq.NewLine("tim2", nil)
	hw := sim.NewStepTimer(line)
	mux := timer.NewMultiplexer(hw, line, timer.Options{Metrics: m.Timer})

	for range timer.Capacity {
		_, err := mux.Delay(time.Millisecond)
		require.NoError(t, err)
	}
	_, err := mux.Delay(time.Millisecond)
	require.ErrorIs(t, err, timer.ErrNoCapacity)

	assert.Equal(t, float64(timer.Capacity), testutil.ToFloat64(m.Timer.slotsOccupied.WithLabelValues("delay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Timer.exhaustedTotal.WithLabelValues("delay")))

	hw.Expire()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Timer.slotsOccupied.WithLabelValues("delay")))
	assert.Equal(t, float64(timer.Capacity), testutil.ToFloat64(m.Timer.expiredTotal.WithLabelValues("delay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Timer.reconciliations))
}

func TestActorMetrics_WiredIntoRuntime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAllMetrics(reg)
	rt := actor.NewRuntime(actor.Options{Metrics: m.Actor})

	type ping struct{}
	addr := actor.New("counter", 0,
		actor.HandleRequest(func(hc actor.HandlerCtx, n int, _ ping) actor.Response[int, int] {
			return actor.Reply(n+1, n+1)
		}),
	).Mount(rt)
	require.NoError(t, rt.Start(t.Context()))
	t.Cleanup(func() { _ = rt.Stop() })

	for range 3 {
		_, err := actor.Request[int](t.Context(), addr, ping{})
		require.NoError(t, err)
	}
	require.Equal(t, 1, testutil.CollectAndCount(m.Actor.messagesTotal))
}
