// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/cli"
	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/commands"
)

func main() {
	if err := run(); err != nil {
		// Verification commands print their own report and return an
		// ExitError. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger(slog.LevelInfo))
}
