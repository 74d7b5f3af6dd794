package timer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lulf/drogue-device/core/hal"
	"github.com/lulf/drogue-device/core/irq"
)

// Capacity is the number of slots in each pool.
const Capacity = 16

// ErrNoCapacity is returned when every slot of the requested pool is occupied.
var ErrNoCapacity = errors.New("timer: no free deadline slot")

const (
	poolDelay    = "delay"
	poolSchedule = "schedule"
)

type delaySlot struct {
	occupied  bool
	gen       uint64
	remaining time.Duration
	resume    func()
}

type scheduleSlot struct {
	occupied  bool
	remaining time.Duration
	deliver   func() error
	label     string
}

// Options configures a Multiplexer.
type Options struct {
	Logger  *slog.Logger
	Metrics Metrics
}

// Multiplexer spreads one countdown timer over Capacity delay slots and
// Capacity schedule slots. Remaining times are kept relative to the start
// of the running countdown and are all reduced by the same elapsed time on
// every interrupt.
//
// Slots are touched from foreground code and from the timer interrupt;
// foreground access happens only with the interrupt line masked.
type Multiplexer struct {
	hw      hal.CountdownTimer
	line    *irq.Line
	log     *slog.Logger
	metrics Metrics

	// current is the countdown the hardware is running; valid when armed.
	current time.Duration
	armed   bool

	delays    [Capacity]delaySlot
	schedules [Capacity]scheduleSlot
}

// NewMultiplexer takes ownership of hw and installs itself as the service
// routine of line, the interrupt line hw raises.
func NewMultiplexer(hw hal.CountdownTimer, line *irq.Line, opts Options) *Multiplexer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	m := &Multiplexer{
		hw:      hw,
		line:    line,
		log:     opts.Logger.With(slog.String("component", "timer")),
		metrics: opts.Metrics,
	}
	line.Attach(m)
	return m
}

// Delay occupies a delay slot for d and returns its awaitable. A
// non-positive d yields a Deadline that has already expired.
func (m *Multiplexer) Delay(d time.Duration) (*Deadline, error) {
	if d <= 0 {
		return expired(), nil
	}

	var (
		dl  *Deadline
		err error
	)
	m.line.Free(func() {
		i := m.freeDelay()
		if i < 0 {
			err = ErrNoCapacity
			return
		}
		s := &m.delays[i]
		s.remaining = m.admit(d)
		s.occupied = true
		s.gen++
		s.resume = nil
		dl = &Deadline{m: m, index: i, gen: s.gen}
		m.reportOccupancy()
	})
	if err != nil {
		m.metrics.CapacityExhausted(poolDelay)
		m.log.Warn("delay dropped", slog.Duration("delay", d), slog.Any("error", err))
		return nil, err
	}
	return dl, nil
}

// Schedule occupies a schedule slot that calls deliver after d. deliver
// runs in interrupt context and must not block. A non-positive d delivers
// at once without using a slot.
func (m *Multiplexer) Schedule(d time.Duration, label string, deliver func() error) error {
	if d <= 0 {
		return deliver()
	}

	var err error
	m.line.Free(func() {
		i := m.freeSchedule()
		if i < 0 {
			err = ErrNoCapacity
			return
		}
		m.schedules[i] = scheduleSlot{occupied: true, remaining: m.admit(d), deliver: deliver, label: label}
		m.reportOccupancy()
	})
	if err != nil {
		m.metrics.CapacityExhausted(poolSchedule)
		m.log.Warn("schedule dropped", slog.Duration("delay", d), slog.String("event", label), slog.Any("error", err))
	}
	return err
}

// OnInterrupt reconciles all slots against the countdown that just
// completed. It runs in interrupt context with the line masked.
func (m *Multiplexer) OnInterrupt() {
	m.hw.ClearUpdateInterruptFlag()
	m.metrics.Reconciliation()

	var elapsed time.Duration
	if m.armed {
		elapsed = m.current
	} else {
		m.log.Debug("interrupt without deadline")
	}

	var (
		next  time.Duration
		found bool
	)
	track := func(remaining time.Duration) {
		if !found || remaining < next {
			next, found = remaining, true
		}
	}

	for i := range m.delays {
		s := &m.delays[i]
		if !s.occupied {
			continue
		}
		s.remaining = decrement(s.remaining, elapsed)
		if s.remaining > 0 {
			track(s.remaining)
			continue
		}
		resume := s.resume
		s.occupied = false
		s.gen++
		s.resume = nil
		m.metrics.Expired(poolDelay)
		if resume != nil {
			resume()
		}
	}

	for i := range m.schedules {
		s := &m.schedules[i]
		if !s.occupied {
			continue
		}
		s.remaining = decrement(s.remaining, elapsed)
		if s.remaining > 0 {
			track(s.remaining)
			continue
		}
		deliver, label := s.deliver, s.label
		m.schedules[i] = scheduleSlot{}
		m.metrics.Expired(poolSchedule)
		if err := deliver(); err != nil {
			m.metrics.DeliveryFailed()
			m.log.Debug("scheduled delivery failed", slog.String("event", label), slog.Any("error", err))
		}
	}

	if found {
		m.current, m.armed = next, true
		m.hw.Start(next)
	} else {
		m.current, m.armed = 0, false
	}
	m.reportOccupancy()
}

// CurrentDeadline reports the countdown the hardware is running, or false
// when no slot is occupied.
func (m *Multiplexer) CurrentDeadline() (d time.Duration, ok bool) {
	m.line.Free(func() { d, ok = m.current, m.armed })
	return d, ok
}

// Occupied counts the occupied slots of each pool.
func (m *Multiplexer) Occupied() (delays, schedules int) {
	m.line.Free(func() { delays, schedules = m.countOccupied() })
	return delays, schedules
}

// Remaining lists the remaining time of every occupied slot, delay slots first.
func (m *Multiplexer) Remaining() []time.Duration {
	var out []time.Duration
	m.line.Free(func() {
		for _, s := range m.delays {
			if s.occupied {
				out = append(out, s.remaining)
			}
		}
		for _, s := range m.schedules {
			if s.occupied {
				out = append(out, s.remaining)
			}
		}
	})
	return out
}

// admit returns the remaining time to store for a new slot due after d and
// restarts the hardware when d ends before the running countdown. Callers
// hold the line.
//
// Remaining times count from the start of the running countdown. When the
// hardware reports its progress, a slot admitted mid-countdown is stretched
// by that progress, and a restart first rebases the occupied slots to now.
// Without progress reporting both are zero and deadlines can only be late.
func (m *Multiplexer) admit(d time.Duration) time.Duration {
	if !m.armed {
		m.current, m.armed = d, true
		m.hw.Start(d)
		return d
	}

	var progress time.Duration
	if c, ok := m.hw.(hal.CountdownCounter); ok {
		progress = c.Elapsed()
	}
	if d+progress >= m.current {
		return d + progress
	}

	if progress > 0 {
		for i := range m.delays {
			if m.delays[i].occupied {
				m.delays[i].remaining = decrement(m.delays[i].remaining, progress)
			}
		}
		for i := range m.schedules {
			if m.schedules[i].occupied {
				m.schedules[i].remaining = decrement(m.schedules[i].remaining, progress)
			}
		}
	}
	m.current = d
	m.hw.Start(d)
	return d
}

func (m *Multiplexer) freeDelay() int {
	for i := range m.delays {
		if !m.delays[i].occupied {
			return i
		}
	}
	return -1
}

func (m *Multiplexer) freeSchedule() int {
	for i := range m.schedules {
		if !m.schedules[i].occupied {
			return i
		}
	}
	return -1
}

func (m *Multiplexer) countOccupied() (delays, schedules int) {
	for i := range m.delays {
		if m.delays[i].occupied {
			delays++
		}
	}
	for i := range m.schedules {
		if m.schedules[i].occupied {
			schedules++
		}
	}
	return delays, schedules
}

func (m *Multiplexer) reportOccupancy() {
	d, s := m.countOccupied()
	m.metrics.SlotsOccupied(poolDelay, d)
	m.metrics.SlotsOccupied(poolSchedule, s)
}

// decrement subtracts elapsed from remaining, clamped at zero.
func decrement(remaining, elapsed time.Duration) time.Duration {
	if remaining <= elapsed {
		return 0
	}
	return remaining - elapsed
}

var _ irq.Handler = (*Multiplexer)(nil)
