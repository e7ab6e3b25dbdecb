// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for bureau-bundle.
//
// Configuration is loaded from a single file specified by either the
// BUREAU_BUNDLE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// automatic file search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production without an explicit section
// raises the log level to warn.
//
// Variable expansion is performed on the key file paths after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- signing, output, and log sections
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [ParseLevel] -- log level names to slog levels
package config
