// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for bureau-bundle.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, a
// [Command.Prepare] hook, and a Run function. Commands are assembled into
// a tree by the commands package and dispatched via [Command.Execute],
// which handles flag parsing, subcommand routing, and structured help
// output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Supporting pieces:
//
//   - [NewCommandLogger]: slog text handler on a terminal, JSON otherwise
//   - [ExitError]: a non-zero exit for a reported negative result
//   - [WriteJSON]: --json output
//   - [CreateOutput]: binary output through an atomic file sink, never
//     to a terminal
package cli
