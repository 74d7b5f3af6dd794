package device

import (
	"context"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/hal"
	"github.com/lulf/drogue-device/core/hal/sim"
	"github.com/lulf/drogue-device/core/irq"
	"github.com/lulf/drogue-device/core/timer"
)

type TimerConfig struct {
	// Line names the interrupt line of the timer.
	Line string
	// Hardware builds the countdown timer raising line. Nil uses a host
	// wall-clock timer.
	Hardware func(line *irq.Line) hal.CountdownTimer
	Metrics  timer.Metrics
}

type Config struct {
	Context     context.Context
	Log         *slog.Logger
	ID          string
	MailboxSize int
	Metrics     actor.Metrics
	OnPanic     actor.OnPanic
	Timer       TimerConfig
}

// Component mounts actors on a device that has not started yet.
type Component func(d *Device)

// Device is one board: the runtime, the timer interrupt line and the timer
// actor every component shares.
type Device struct {
	id        string
	ctx       context.Context
	cancelCtx context.CancelFunc
	log       *slog.Logger

	rt    *actor.Runtime
	line  *irq.Line
	hw    hal.CountdownTimer
	mux   *timer.Multiplexer
	timer timer.Handle
}

func New(config Config, components ...Component) *Device {
	d := &Device{}

	// === identity & logger ===
	if config.ID == "" {
		config.ID = fmt.Sprintf("device-%s", gonanoid.Must(6))
	}
	d.id = config.ID
	if config.Log == nil {
		config.Log = slog.Default()
	}
	d.log = config.Log.With(slog.String("device", d.id))

	// === context ===
	if config.Context == nil {
		config.Context = context.Background()
	}
	d.ctx, d.cancelCtx = context.WithCancel(config.Context)

	// === runtime ===
	d.rt = actor.NewRuntime(actor.Options{
		Logger:      d.log,
		Metrics:     config.Metrics,
		OnPanic:     config.OnPanic,
		MailboxSize: config.MailboxSize,
	})

	// === timer ===
	tc := config.Timer
	if tc.Line == "" {
		tc.Line = "tim2"
	}
	if tc.Hardware == nil {
		tc.Hardware = func(line *irq.Line) hal.CountdownTimer { return sim.NewWallTimer(line) }
	}
	d.line = irq.NewLine(tc.Line, d.log)
	d.hw = tc.Hardware(d.line)
	d.mux = timer.NewMultiplexer(d.hw, d.line, timer.Options{Logger: d.log, Metrics: tc.Metrics})
	d.timer = timer.Mount(d.rt, d.mux)

	for _, c := range components {
		c(d)
	}

	d.log.Debug("device created", slog.Any("actors", d.rt.Actors()))
	return d
}

func (d *Device) ID() string                      { return d.id }
func (d *Device) Log() *slog.Logger               { return d.log }
func (d *Device) Runtime() *actor.Runtime         { return d.rt }
func (d *Device) Timer() timer.Handle             { return d.timer }
func (d *Device) Multiplexer() *timer.Multiplexer { return d.mux }
func (d *Device) Context() context.Context        { return d.ctx }

// Run starts every mounted actor.
func (d *Device) Run() error {
	if err := d.rt.Start(d.ctx); err != nil {
		return err
	}
	d.log.Info("device started", slog.Int("actors", len(d.rt.Actors())))
	return nil
}

// Stop stops the runtime and disarms the timer hardware when it can be.
func (d *Device) Stop() error {
	d.cancelCtx()
	err := d.rt.Stop()
	if s, ok := d.hw.(interface{ Stop() }); ok {
		s.Stop()
	}
	d.log.Info("device stopped")
	return err
}

// Done is closed once the device stops.
func (d *Device) Done() <-chan struct{} { return d.rt.Done() }

// Run creates a device with components and starts it.
func Run(config Config, components ...Component) (*Device, error) {
	d := New(config, components...)
	if err := d.Run(); err != nil {
		return nil, err
	}
	return d, nil
}
