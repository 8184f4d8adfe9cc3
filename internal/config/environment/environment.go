package environment

import (
	"os"
	"runtime"
)

// DetectOperatingSystem returns the operating system name
func DetectOperatingSystem() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "darwin"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}

// DetectHostname returns the machine hostname or localhost.
func DetectHostname() string {
	if hostname, err := os.Hostname(); err == nil && len(hostname) > 0 {
		return hostname
	}
	return "localhost"
}

// IsEphemeralEnvironment reports whether nothing written to the home
// directory is expected to outlive the process: containers and CI runners.
func IsEphemeralEnvironment() bool {
	if isKubernetes() || isContainer() {
		return true
	}

	// Common CI providers
	if len(os.Getenv("CI")) > 0 || len(os.Getenv("GITHUB_ACTIONS")) > 0 {
		return true
	}

	return false
}

func isKubernetes() bool {
	return len(os.Getenv("KUBERNETES_SERVICE_HOST")) > 0
}

func isContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}
	return false
}
