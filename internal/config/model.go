package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smartbedding/panel/internal/models"
)

var ErrInvalidEndpoint = errors.New("invalid device endpoint")

// Config represents the application configuration
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Polling PollingConfig `mapstructure:"polling"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Server  ServerConfig  `mapstructure:"server"`

	logger *RecentLogs
}

type DeviceConfig struct {
	Endpoint string        `mapstructure:"endpoint" default:"http://192.168.0.112:8080"`
	Timeout  time.Duration `mapstructure:"timeout" default:"5s"`
}

type PollingConfig struct {
	Interval time.Duration `mapstructure:"interval" default:"8s"`
}

type SessionConfig struct {
	Path      string `mapstructure:"path"`
	Ephemeral bool   `mapstructure:"ephemeral"` // keep the token in memory only
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

type AlertsConfig struct {
	Duration time.Duration `mapstructure:"duration" default:"5s"`
}

// ServerConfig drives the simulated device served by `bedctl device serve`.
type ServerConfig struct {
	Host           string                    `mapstructure:"host"`
	Port           int                       `mapstructure:"port"`
	Code           string                    `mapstructure:"code"`
	AllowedOrigins []string                  `mapstructure:"allowed_origins"`
	Connectivity   models.ConnectivityAnswer `mapstructure:"connectivity"`
}

func (c *Config) Validate() error {
	if _, err := c.parseEndpoint(); err != nil {
		return err
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be positive, got %s", c.Polling.Interval)
	}
	return nil
}

// SetDeviceEndpoint overrides the configured endpoint, e.g. from --device.
func (c *Config) SetDeviceEndpoint(endpoint string) error {
	previous := c.Device.Endpoint
	c.Device.Endpoint = endpoint

	if _, err := c.parseEndpoint(); err != nil {
		c.Device.Endpoint = previous
		return err
	}
	return nil
}

func (c *Config) GetDeviceUrl() string {
	return strings.TrimSuffix(c.Device.Endpoint, "/")
}

// GetDeviceName returns the host (and port) of the device endpoint in a form
// that is safe to use as a file name. Sessions are stored per device.
func (c *Config) GetDeviceName() string {
	endpoint, err := c.parseEndpoint()
	if err != nil {
		return "localhost"
	}
	return strings.ReplaceAll(endpoint.Host, ":", "_")
}

func (c *Config) parseEndpoint() (*url.URL, error) {
	endpoint, err := url.Parse(c.Device.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, endpoint.Scheme)
	}
	if len(endpoint.Host) == 0 {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	return endpoint, nil
}

// GetServerAddress returns the simulator bind address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetLocalServerUrl() string {
	hostname := c.Server.Host
	if hostname == "0.0.0.0" {
		hostname = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", hostname, c.Server.Port)
}

// GetRecentLogs returns the entries captured since logging was set up. Nil
// when the config was not produced by Load.
func (c *Config) GetRecentLogs() *RecentLogs {
	return c.logger
}

func (c *Config) GetEventsWithFilter(filter LogFilter) []*models.LogEntry {
	if c.logger == nil {
		return nil
	}
	return c.logger.GetEventsWithFilter(filter)
}
