package buildconfig

import (
	"runtime"
	"runtime/debug"
)

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/companion/internal/buildconfig.version=v1.2.3
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash, falling back to the VCS revision
// recorded by the Go toolchain when ldflags did not set it.
func Commit() string {
	if commit != "unknown" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return commit
}

// VersionInfo is reported by the health endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    Version(),
		"commit":     Commit(),
		"go_version": runtime.Version(),
	}
}
