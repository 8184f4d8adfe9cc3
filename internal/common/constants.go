package common

const (
	// EnvPrefix prefixes every environment variable read by bedctl.
	EnvPrefix = "BEDCTL"

	ConfigDirName = "smartbedding"

	// DefaultDeviceEndpoint is where the controller listens when it joins
	// the home network.
	DefaultDeviceEndpoint = "http://192.168.0.112:8080"
)
