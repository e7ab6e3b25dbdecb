// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo_UsesInjectedValues(t *testing.T) {
	saved := [...]string{GitCommit, GitDirty, BuildTime, Version}
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	})

	GitCommit, GitDirty, BuildTime, Version = "abc1234", "true", "2026-10-01T00:00:00Z", "1.2.3"

	want := "1.2.3 (abc1234-dirty, 2026-10-01T00:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if got := Short(); got != "1.2.3" {
		t.Errorf("Short() = %q", got)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, want := range []string{
		Info(),
		runtime.Version(),
		runtime.GOOS + "/" + runtime.GOARCH,
		"data item " + ItemFormat,
		"bundle " + BundleFormat,
	} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() = %q, missing %q", full, want)
		}
	}
}
