package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blinky.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.Blink.Delay)
	require.False(t, cfg.Nats.Enabled)
	require.Equal(t, "blinky", cfg.Nats.DeviceID)
}

func TestConfig_File(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[blink]
delay = "250ms"

[nats]
enabled = true
device_id = "board-7"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 250*time.Millisecond, cfg.Blink.Delay)
	require.True(t, cfg.Nats.Enabled)
	require.Equal(t, "board-7", cfg.Nats.DeviceID)
	require.Equal(t, 5*time.Second, cfg.Sensor.PollInterval)
}

func TestConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[blink]\ndelay = \"250ms\"\n")
	t.Setenv("BLINKY_DELAY", "1s")
	t.Setenv("BLINKY_NATS", "true")
	t.Setenv("BLINKY_MAILBOX_SIZE", "not a number")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.Blink.Delay)
	require.True(t, cfg.Nats.Enabled)
	require.Equal(t, 16, cfg.MailboxSize)
}

func TestConfig_Invalid(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "[blink]\ndelay = \"-1s\"\n"))
	require.ErrorContains(t, err, "blink.delay")

	_, err = loadConfig(writeConfig(t, "log_level = \"loud\"\n"))
	require.ErrorContains(t, err, "log_level")

	_, err = loadConfig(writeConfig(t, "[blnk]\ndelay = \"1s\"\n"))
	require.ErrorContains(t, err, "unknown keys")
}
