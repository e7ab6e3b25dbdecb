// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// ItemFormat and BundleFormat are the data item and bundle format
// versions this build reads and writes.
const (
	ItemFormat   = "1"
	BundleFormat = "2.0.0"
)

// buildSettings fills commit, dirty, and time from the Go build info
// for values not injected with -ldflags.
func buildSettings() (commit, dirty, built string) {
	commit, dirty, built = GitCommit, GitDirty, BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, dirty, built
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "unknown" && len(setting.Value) >= 7 {
				commit = setting.Value[:7]
			}
		case "vcs.modified":
			if setting.Value == "true" {
				dirty = "true"
			}
		case "vcs.time":
			if built == "unknown" {
				built = setting.Value
			}
		}
	}
	return commit, dirty, built
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	commit, dirty, built := buildSettings()
	suffix := ""
	if dirty == "true" {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns detailed version information including the Go version
// and the supported wire formats.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s\n  Formats: data item %s, bundle %s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH, ItemFormat, BundleFormat)
}

// Short returns just the version number.
func Short() string {
	return Version
}
