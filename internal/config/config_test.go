package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartbedding/panel/internal/config/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://192.168.0.112:8080", cfg.Device.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Device.Timeout)
	assert.Equal(t, 8*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 5*time.Second, cfg.Alerts.Duration)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, environment.IsEphemeralEnvironment(), cfg.Session.Ephemeral)
	assert.Equal(t, "192.168.0.112_8080", cfg.GetDeviceName())
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
	assert.Equal(t, "http://localhost:8080", cfg.GetLocalServerUrl())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
device:
  endpoint: http://10.0.0.5:9090/
  timeout: 2s
polling:
  interval: 500ms
session:
  ephemeral: true
logging:
  level: debug
  format: json
server:
  code: "4321"
  connectivity:
    wifi_ssid: HomeNet
    networks:
      - ssid: HomeNet
        signal: -40
        secured: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9090", cfg.GetDeviceUrl())
	assert.Equal(t, "10.0.0.5_9090", cfg.GetDeviceName())
	assert.Equal(t, 2*time.Second, cfg.Device.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.Interval)
	assert.True(t, cfg.Session.Ephemeral)
	assert.Equal(t, "4321", cfg.Server.Code)
	assert.Equal(t, "HomeNet", cfg.Server.Connectivity.WifiSSID)
	require.Len(t, cfg.Server.Connectivity.Networks, 1)
	assert.Equal(t, -40, cfg.Server.Connectivity.Networks[0].Signal)
	assert.NotNil(t, cfg.GetRecentLogs())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "device:\n  endpoint: http://10.0.0.5:9090\n")

	t.Setenv("BEDCTL_DEVICE_ENDPOINT", "http://bed.local:8080")
	t.Setenv("BEDCTL_POLLING_INTERVAL", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://bed.local:8080", cfg.Device.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Polling.Interval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"bad scheme", "device:\n  endpoint: ftp://bed.local\n"},
		{"missing host", "device:\n  endpoint: http://\n"},
		{"zero interval", "polling:\n  interval: 0s\n"},
		{"bad log level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}

func TestSetDeviceEndpoint(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetDeviceEndpoint("http://127.0.0.1:18080"))
	assert.Equal(t, "127.0.0.1_18080", cfg.GetDeviceName())

	err := cfg.SetDeviceEndpoint("not a url")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	assert.Equal(t, "http://127.0.0.1:18080", cfg.Device.Endpoint)
}

func TestLoad_ISODurations(t *testing.T) {
	path := writeConfig(t, `
polling:
  interval: PT12S
alerts:
  duration: PT1M
server:
  allowed_origins: http://localhost:4200,http://bed.local
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12*time.Second, cfg.Polling.Interval)
	assert.Equal(t, time.Minute, cfg.Alerts.Duration)
	assert.Equal(t, []string{"http://localhost:4200", "http://bed.local"}, cfg.Server.AllowedOrigins)
}
