// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr. When stderr
// is a terminal it uses slog.TextHandler for human-readable output;
// when piped or redirected (CI, scripts) it uses slog.JSONHandler.
//
// Callers scope the logger with command-specific context via With():
//
//	logger = logger.With("command", "bundle/pack", "output", path)
func NewCommandLogger(level slog.Leveler) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)
}

func newLogger(w io.Writer, terminal bool, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
