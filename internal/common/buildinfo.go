package common

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/smartbedding/panel/internal/common.Version=..."
var (
	Version   = "dev"
	GitCommit = ""
)

// BuildInfo identifies the running bedctl binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// ReadBuildInfo prefers ldflags values and falls back to the module and VCS
// data embedded by the Go toolchain.
func ReadBuildInfo() BuildInfo {
	build := BuildInfo{Version: Version, Commit: GitCommit}
	if build.Version != "dev" {
		return build
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}

	if len(info.Main.Version) > 0 && info.Main.Version != "(devel)" {
		build.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			build.Commit = setting.Value
			break
		}
	}
	return build
}

func (b BuildInfo) ShortCommit() string {
	if len(b.Commit) > 8 {
		return b.Commit[:8]
	}
	return b.Commit
}

func (b BuildInfo) String() string {
	if len(b.Commit) == 0 {
		return b.Version
	}
	return fmt.Sprintf("%s (git: %s)", b.Version, b.ShortCommit())
}

// UserAgent is sent with every request to the device.
func (b BuildInfo) UserAgent() string {
	if len(b.Commit) == 0 {
		return "bedctl/" + b.Version
	}
	return fmt.Sprintf("bedctl/%s+%s", b.Version, b.ShortCommit())
}
