// Command blinky runs a simulated board on the host: an LED blinking on a
// wall-clock timer, an HTS221 behind an I2C arbitrator, a SPI flash probe,
// Prometheus metrics and optional NATS telemetry.
//
// Run with: go run ./cmd/blinky -config blinky.toml
//
// With NATS enabled the blink period can be changed remotely:
//
//	nats req drogue.blinky.command.adjust-delay '{"delay": 250000000}'
//	nats req drogue.blinky.command.ctrl3 '{}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lulf/drogue-device/adapters/nats"
	promadapter "github.com/lulf/drogue-device/adapters/prometheus"
	"github.com/lulf/drogue-device/core/actor"
	"github.com/lulf/drogue-device/core/device"
	"github.com/lulf/drogue-device/core/hal/sim"
	"github.com/lulf/drogue-device/driver/i2c"
	"github.com/lulf/drogue-device/driver/led"
	"github.com/lulf/drogue-device/driver/sensor/hts221"
	"github.com/lulf/drogue-device/driver/spi"
)

// jedecID is what the simulated SPI flash answers to a 0x9f probe.
var jedecID = []byte{0xef, 0x40, 0x18}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := cfg.level()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("board failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg Config) error {
	metrics := promadapter.NewAllMetrics(prometheus.DefaultRegisterer)

	promMux := http.NewServeMux()
	promMux.Handle("/metrics", promhttp.Handler())
	promServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: promMux}
	go func() {
		log.Info("prometheus metrics server starting", slog.String("addr", cfg.Metrics.Addr))
		if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("prometheus server error", slog.Any("error", err))
		}
	}()
	defer promServer.Shutdown(context.Background())

	var link *nats.Link
	if cfg.Nats.Enabled {
		var err error
		link, err = nats.NewLink(nats.LinkConfig{
			Connect:       nats.ConnectURL(cfg.Nats.URL),
			Log:           log,
			SubjectPrefix: cfg.Nats.SubjectPrefix,
			DeviceID:      cfg.Nats.DeviceID,
		})
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer link.Close()
	}

	var (
		pin     = sim.NewPin()
		publish = func(string, any) error { return nil }
		blinker led.BlinkerHandle
		spi1    spi.Spi
		mon     actor.Address[monitor]
	)
	dev := device.New(device.Config{
		Context:     ctx,
		Log:         log,
		ID:          cfg.Nats.DeviceID,
		MailboxSize: cfg.MailboxSize,
		Metrics:     metrics.Actor,
		Timer:       device.TimerConfig{Metrics: metrics.Timer},
	}, func(d *device.Device) {
		rt := d.Runtime()
		if link != nil {
			publish = nats.MountPublisher(rt, link).Publish
		}

		led1 := led.Mount(rt, "led1", pin)
		blinker = led.MountBlinker(rt, "blinker", led1, d.Timer(), cfg.Blink.Delay)

		i2c1 := i2c.Mount(rt, "i2c1", sim.NewI2cRegisters(hts221.Address), i2c.Options{ArbiterMetrics: metrics.Arbiter})
		mon = newMonitor(i2c1, d.Timer(), cfg.Sensor.PollInterval, publish).Mount(rt)

		flash := sim.NewSpiLoopback(0)
		flash.Respond(func(words []byte) error {
			if len(words) > 0 && words[0] == 0x9f {
				copy(words[1:], jedecID)
			}
			return nil
		})
		spi1 = spi.Mount(rt, "spi1", flash, spi.Options{ArbiterMetrics: metrics.Arbiter})
	})
	if err := dev.Run(); err != nil {
		return err
	}
	defer dev.Stop()

	if link != nil {
		if _, err := nats.Bridge[led.Blinker, led.AdjustDelay](ctx, link, "adjust-delay", blinker.Address()); err != nil {
			return err
		}
		if _, err := nats.Serve[ctrl3Reading, monitor, readCtrl3](ctx, link, "ctrl3", mon); err != nil {
			return err
		}
	}

	id, err := spi1.Transfer(ctx, []byte{0x9f, 0, 0, 0})
	if err != nil {
		log.Warn("flash probe failed", slog.Any("error", err))
	} else {
		log.Info("flash probed", slog.String("jedec_id", fmt.Sprintf("% x", id[1:])))
	}

	go func() {
		for high := range pin.Changes() {
			log.Debug("led", slog.Bool("on", high))
			_ = publish("led", map[string]bool{"on": high})
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
