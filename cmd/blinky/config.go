package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the board configuration. Every field can be overridden from
// the environment; see applyEnv.
type Config struct {
	LogLevel string `toml:"log_level"`

	Blink struct {
		Delay time.Duration `toml:"delay"`
	} `toml:"blink"`

	Sensor struct {
		PollInterval time.Duration `toml:"poll_interval"`
	} `toml:"sensor"`

	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`

	Nats struct {
		Enabled       bool   `toml:"enabled"`
		URL           string `toml:"url"`
		DeviceID      string `toml:"device_id"`
		SubjectPrefix string `toml:"subject_prefix"`
	} `toml:"nats"`

	MailboxSize int `toml:"mailbox_size"`
}

func defaultConfig() Config {
	var c Config
	c.LogLevel = "info"
	c.Blink.Delay = 500 * time.Millisecond
	c.Sensor.PollInterval = 5 * time.Second
	c.Metrics.Addr = ":2121"
	c.Nats.URL = "nats://127.0.0.1:4222"
	c.Nats.DeviceID = "blinky"
	c.Nats.SubjectPrefix = "drogue"
	c.MailboxSize = 16
	return c
}

// loadConfig reads path over the defaults, then applies the environment.
// An empty path skips the file.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("read config %s: unknown keys %v", path, undecoded)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("BLINKY_LOG_LEVEL", c.LogLevel)
	c.Blink.Delay = getEnvDuration("BLINKY_DELAY", c.Blink.Delay)
	c.Sensor.PollInterval = getEnvDuration("BLINKY_POLL_INTERVAL", c.Sensor.PollInterval)
	c.Metrics.Addr = getEnv("BLINKY_METRICS_ADDR", c.Metrics.Addr)
	c.Nats.Enabled = getEnvBool("BLINKY_NATS", c.Nats.Enabled)
	c.Nats.URL = getEnv("NATS_URL", c.Nats.URL)
	c.Nats.DeviceID = getEnv("BLINKY_DEVICE_ID", c.Nats.DeviceID)
	c.MailboxSize = getEnvInt("BLINKY_MAILBOX_SIZE", c.MailboxSize)
}

func (c *Config) validate() error {
	if c.Blink.Delay <= 0 {
		return fmt.Errorf("blink.delay must be positive, got %s", c.Blink.Delay)
	}
	if c.Sensor.PollInterval <= 0 {
		return fmt.Errorf("sensor.poll_interval must be positive, got %s", c.Sensor.PollInterval)
	}
	if c.MailboxSize <= 0 {
		return fmt.Errorf("mailbox_size must be positive, got %d", c.MailboxSize)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}
