// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for bureau-bundle.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When they are not injected, [Info] falls back to the VCS stamps the
// Go toolchain records in the binary, and then to "unknown".
//
// [ItemFormat] and [BundleFormat] name the wire format versions. The
// data item signature data embeds ItemFormat, and bundles carry
// BundleFormat in their Bundle-Version tag.
//
//	go build -ldflags "-X github.com/bureau-foundation/databundle/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
