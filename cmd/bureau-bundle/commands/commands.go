// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the bureau-bundle command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/cli"
	"github.com/bureau-foundation/databundle/lib/config"
	"github.com/bureau-foundation/databundle/lib/source"
	"github.com/bureau-foundation/databundle/lib/version"
)

// application holds the root flags and the configuration they select.
// Subcommands read it after the root's Prepare hook has run.
type application struct {
	configPath  string
	logLevel    string
	showVersion bool

	config *config.Config

	stdout    io.Writer
	newLogger func(slog.Level) *slog.Logger
}

// Root builds and returns the complete bureau-bundle command tree.
func Root() *cli.Command {
	return newApplication(os.Stdout).root()
}

func newApplication(stdout io.Writer) *application {
	return &application{
		stdout: stdout,
		newLogger: func(level slog.Level) *slog.Logger {
			return cli.NewCommandLogger(level)
		},
	}
}

func (a *application) root() *cli.Command {
	root := &cli.Command{
		Name: "bureau-bundle",
		Description: `bureau-bundle: signed data items and the bundles that carry them.

A data item is a signed header followed by an opaque payload. A bundle
is a binary container holding many data items behind a header of
lengths and identifiers. Items are signed with RSA-PSS, Ed25519, or
secp256k1 keys and identified by the SHA-256 of their signature.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("bureau-bundle", pflag.ContinueOnError)
			flagSet.StringVar(&a.configPath, "config", "", "config file (default: $"+config.EnvVar+", else built-in defaults)")
			flagSet.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
			flagSet.BoolVar(&a.showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Prepare: a.prepare,
		Subcommands: []*cli.Command{
			a.keyCommand(),
			a.itemCommand(),
			a.bundleCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string, *slog.Logger) error {
					fmt.Fprintf(a.stdout, "bureau-bundle %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Generate an Ed25519 signing key",
				Command:     "bureau-bundle key generate --type ed25519 -o signer.jwk",
			},
			{
				Description: "Sign a payload into a data item",
				Command:     "bureau-bundle item sign --key signer.jwk --tag Content-Type=text/plain -o note.item note.txt",
			},
			{
				Description: "Pack items into a bundle and verify every signature",
				Command:     "bureau-bundle bundle pack -o notes.bundle a.item b.item && bureau-bundle bundle verify notes.bundle",
			},
		},
	}
	root.Run = func(ctx context.Context, args []string, logger *slog.Logger) error {
		if a.showVersion {
			fmt.Fprintf(a.stdout, "bureau-bundle %s\n", version.Info())
			return nil
		}
		root.PrintHelp(os.Stderr)
		return fmt.Errorf("subcommand required")
	}
	return root
}

// prepare loads and validates configuration, then builds the logger at
// the configured level.
func (a *application) prepare(_ context.Context, _ *slog.Logger) (*slog.Logger, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a.config = cfg
	return a.newLogger(level), nil
}

func (a *application) loadConfig() (*config.Config, error) {
	switch {
	case a.configPath != "":
		return config.LoadFile(a.configPath)
	case os.Getenv(config.EnvVar) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

// settings returns the loaded configuration, or defaults when a
// subcommand is executed without the root.
func (a *application) settings() *config.Config {
	if a.config == nil {
		a.config = config.Default()
	}
	return a.config
}

// outputCompression is the compression applied to output paths that
// carry no compression suffix.
func (a *application) outputCompression() (source.Compression, error) {
	return a.settings().OutputCompression()
}
