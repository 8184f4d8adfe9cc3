package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/config/environment"
)

func DefaultConfig() *Config {

	v := viper.New()

	// Set default values
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config, decodeHooks()); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if err := setupViperConfig(v, configFile); err != nil {
		return nil, err
	}

	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		// .env file not found, that's okay - continue with other sources
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartbedding")

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setupHomeConfigPath(v)

	// Set default values
	setDefaults(v)

	// Set environment variable settings
	v.SetEnvPrefix(common.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	return nil
}

// setupHomeConfigPath adds the home directory config path if available
func setupHomeConfigPath(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil || len(home) == 0 {
		return
	}

	v.AddConfigPath(filepath.Join(home, ".config", common.ConfigDirName))
}

// bindEnvironmentVariables binds all environment variables to viper
func bindEnvironmentVariables(v *viper.Viper) {

	// Device environment variables
	v.BindEnv("device.endpoint", "BEDCTL_DEVICE_ENDPOINT", "BEDCTL_DEVICE")
	v.BindEnv("device.timeout", "BEDCTL_DEVICE_TIMEOUT")

	v.BindEnv("polling.interval", "BEDCTL_POLLING_INTERVAL")

	v.BindEnv("session.path", "BEDCTL_SESSION_PATH")
	v.BindEnv("session.ephemeral", "BEDCTL_SESSION_EPHEMERAL")

	v.BindEnv("alerts.duration", "BEDCTL_ALERTS_DURATION")

	bindLoggingEnvVars(v)
	bindServerEnvVars(v)
}

// bindLoggingEnvVars binds logging configuration environment variables
func bindLoggingEnvVars(v *viper.Viper) {
	v.BindEnv("logging.level", "BEDCTL_LOGGING_LEVEL")
	v.BindEnv("logging.format", "BEDCTL_LOGGING_FORMAT")
}

// bindServerEnvVars binds the simulated device settings
func bindServerEnvVars(v *viper.Viper) {
	v.BindEnv("server.host", "BEDCTL_SERVER_HOST")
	v.BindEnv("server.port", "BEDCTL_SERVER_PORT")
	v.BindEnv("server.code", "BEDCTL_SERVER_CODE")
	v.BindEnv("server.allowed_origins", "BEDCTL_SERVER_ALLOWED_ORIGINS")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHooks()); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// decodeHooks lets every duration setting be written either as a Go
// duration or as ISO 8601
func decodeHooks() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook,
		mapstructure.StringToSliceHookFunc(","),
	))
}

func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	return common.ParseDuration(data.(string))
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.logger = NewRecentLogs(DefaultRecentLogsSize)
	logrus.AddHook(config.logger)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	// Dump out the config settings if in debug mode
	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {

	// Device defaults
	v.SetDefault("device.endpoint", common.DefaultDeviceEndpoint)
	v.SetDefault("device.timeout", "5s")

	// Polling defaults
	v.SetDefault("polling.interval", "8s")

	// Session defaults. Containers and CI runners get an in-memory session
	v.SetDefault("session.path", filepath.Join("~", ".config", common.ConfigDirName))
	v.SetDefault("session.ephemeral", environment.IsEphemeralEnvironment())

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Alert defaults
	v.SetDefault("alerts.duration", "5s")

	// Simulated device defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.code", "1234")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.connectivity.ap_mode", false)
	v.SetDefault("server.connectivity.broker_mqtt", true)
	v.SetDefault("server.connectivity.wifi_ssid", "SmartBedding")
}
