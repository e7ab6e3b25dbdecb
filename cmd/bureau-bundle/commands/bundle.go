// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/cli"
	"github.com/bureau-foundation/databundle/lib/bundle"
	"github.com/bureau-foundation/databundle/lib/codec"
	"github.com/bureau-foundation/databundle/lib/dataitem"
	"github.com/bureau-foundation/databundle/lib/source"
)

func (a *application) bundleCommand() *cli.Command {
	return &cli.Command{
		Name:    "bundle",
		Summary: "Pack, inspect, verify, and extract bundles",
		Description: `A bundle is a header of (length, identifier) pairs followed by the
serialized data items, in header order. Items are located by summing
the lengths before them; "bundle index" saves those offsets to a CBOR
sidecar so later reads can skip the header.`,
		Subcommands: []*cli.Command{
			a.bundlePackCommand(),
			a.bundleInspectCommand(),
			a.bundleVerifyCommand(),
			a.bundleExtractCommand(),
			a.bundleIndexCommand(),
		},
	}
}

// openBundle opens the bundle at path, through the index sidecar when
// indexPath is set.
func openBundle(ctx context.Context, path, indexPath string) (*bundle.Reader, error) {
	src := source.Path(path)
	if indexPath == "" {
		reader, err := bundle.Open(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return reader, nil
	}

	file, err := os.Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	index, err := bundle.DecodeIndex(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}
	reader, err := bundle.OpenWithIndex(ctx, src, index)
	if err != nil {
		return nil, fmt.Errorf("%s with index %s: %w", path, indexPath, err)
	}
	return reader, nil
}

func (a *application) bundlePackCommand() *cli.Command {
	var (
		outputPath string
		indexPath  string
	)

	return &cli.Command{
		Name:    "pack",
		Summary: "Pack data items into a bundle",
		Description: `Write a bundle holding the data items in ITEM... in argument order.

Each item file is read once for its header and streamed again into the
bundle. Duplicate items are rejected. With --index, the offset sidecar
is written next to the bundle.`,
		Usage: "bureau-bundle bundle pack [--index OUT.idx] -o OUT ITEM...",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "output bundle file, or - for stdout")
			flagSet.StringVar(&indexPath, "index", "", "also write the offset index sidecar here")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Pack every item in a directory",
				Command:     "bureau-bundle bundle pack -o day.bundle.zst items/*.item",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("at least one ITEM is required")
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}

			items := make([]*dataitem.Item, 0, len(args))
			for _, path := range args {
				item, err := dataitem.LoadFile(ctx, path)
				if err != nil {
					return err
				}
				items = append(items, item)
			}

			compression, err := a.outputCompression()
			if err != nil {
				return err
			}
			output, err := cli.CreateOutput(outputPath, compression)
			if err != nil {
				return err
			}
			logger = logger.With("command", "bundle/pack", "output", output.Path())
			header, written, err := bundle.Pack(ctx, output, items, logger)
			if err != nil {
				output.Abort()
				return err
			}
			if err := output.Commit(); err != nil {
				return err
			}

			if indexPath != "" {
				index, err := header.Index()
				if err != nil {
					return err
				}
				if err := writeIndex(index, indexPath); err != nil {
					return err
				}
			}
			if output.Path() != "-" {
				fmt.Fprintf(a.stdout, "packed %d items (%d bytes) into %s\n", header.Len(), written, output.Path())
			}
			return nil
		},
	}
}

func writeIndex(index *bundle.Index, path string) error {
	output, err := cli.CreateOutput(path, source.CompressionNone)
	if err != nil {
		return err
	}
	if err := bundle.EncodeIndex(output, index); err != nil {
		output.Abort()
		return fmt.Errorf("writing index %s: %w", path, err)
	}
	return output.Commit()
}

// bundleSummary is the inspect view of a bundle.
type bundleSummary struct {
	Items      int                 `json:"items"`
	HeaderSize uint64              `json:"header_size"`
	TotalSize  uint64              `json:"total_size"`
	Entries    []bundle.IndexEntry `json:"entries"`
}

func (a *application) bundleInspectCommand() *cli.Command {
	var (
		outputJSON bool
		indexPath  string
	)

	return &cli.Command{
		Name:    "inspect",
		Summary: "List the items in a bundle",
		Usage:   "bureau-bundle bundle inspect [--json] [--index FILE] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			flagSet.StringVar(&indexPath, "index", "", "offset index sidecar")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument, got %d", len(args))
			}
			reader, err := openBundle(ctx, args[0], indexPath)
			if err != nil {
				return err
			}
			index := reader.Index()
			summary := bundleSummary{
				Items:      index.Len(),
				HeaderSize: index.HeaderSize(),
				TotalSize:  index.TotalSize(),
				Entries:    index.Entries(),
			}
			if outputJSON {
				return cli.WriteJSON(a.stdout, summary)
			}

			fmt.Fprintf(a.stdout, "items: %d\nheader size: %d\ntotal size: %d\n\n",
				summary.Items, summary.HeaderSize, summary.TotalSize)
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "OFFSET\tLENGTH\tID\n")
			for _, entry := range summary.Entries {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", entry.Offset, entry.Length, entry.ID)
			}
			return tw.Flush()
		},
	}
}

func (a *application) bundleVerifyCommand() *cli.Command {
	var (
		outputJSON bool
		indexPath  string
	)

	return &cli.Command{
		Name:    "verify",
		Summary: "Verify every item in a bundle",
		Description: `Check the signature of every item in the bundle, in order.

An item whose identifier does not match its header entry, or that
cannot be decoded, counts as invalid. Exits 1 when any item is invalid.`,
		Usage: "bureau-bundle bundle verify [--json] [--index FILE] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			flagSet.StringVar(&indexPath, "index", "", "offset index sidecar")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument, got %d", len(args))
			}
			reader, err := openBundle(ctx, args[0], indexPath)
			if err != nil {
				return err
			}
			results, err := reader.VerifyAll(ctx, logger.With("command", "bundle/verify", "bundle", args[0]))
			if err != nil {
				return err
			}

			invalid := 0
			for _, result := range results {
				if !result.Valid {
					invalid++
				}
			}
			if outputJSON {
				if err := cli.WriteJSON(a.stdout, results); err != nil {
					return err
				}
			} else {
				for _, result := range results {
					printStatus(a.stdout, result.ID, result.Valid, result.Error)
				}
				printSummary(a.stdout, len(results), invalid)
			}
			if invalid > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func (a *application) bundleExtractCommand() *cli.Command {
	var (
		outputPath string
		indexPath  string
	)

	return &cli.Command{
		Name:    "extract",
		Summary: "Copy one item out of a bundle",
		Description: `Write the serialized data item named ID from the bundle in FILE.

The result is a standalone item file that "item verify" accepts.`,
		Usage: "bureau-bundle bundle extract [--index FILE] FILE ID -o OUT",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "output item file, or - for stdout")
			flagSet.StringVar(&indexPath, "index", "", "offset index sidecar")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("expected FILE and ID arguments, got %d arguments", len(args))
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			reader, err := openBundle(ctx, args[0], indexPath)
			if err != nil {
				return err
			}
			raw, err := reader.Raw(args[1])
			if err != nil {
				return err
			}

			compression, err := a.outputCompression()
			if err != nil {
				return err
			}
			output, err := cli.CreateOutput(outputPath, compression)
			if err != nil {
				return err
			}
			if err := writeOutput(output, source.Concat(ctx, raw)); err != nil {
				return fmt.Errorf("writing %s: %w", output.Path(), err)
			}
			logger.Debug("extracted item", "command", "bundle/extract", "id", args[1], "output", output.Path())
			return nil
		},
	}
}

func (a *application) bundleIndexCommand() *cli.Command {
	var (
		outputPath string
		diagnose   bool
	)

	return &cli.Command{
		Name:    "index",
		Summary: "Build the offset index sidecar for a bundle",
		Description: `Decode the bundle header in FILE and write a CBOR sidecar holding each
item's byte offset and length, plus a BLAKE3 checksum of the header.
Commands given --index use the sidecar instead of summing lengths, and
refuse it if the bundle header has changed.

With --diag, the sidecar is printed in CBOR diagnostic notation instead.`,
		Usage: "bureau-bundle bundle index FILE (-o OUT.idx | --diag)",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("index", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "sidecar file to write")
			flagSet.BoolVar(&diagnose, "diag", false, "print diagnostic notation to stdout")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument, got %d", len(args))
			}
			if outputPath == "" && !diagnose {
				return fmt.Errorf("one of --output or --diag is required")
			}
			reader, err := openBundle(ctx, args[0], "")
			if err != nil {
				return err
			}

			if diagnose {
				var encoded bytes.Buffer
				if err := bundle.EncodeIndex(&encoded, reader.Index()); err != nil {
					return err
				}
				notation, err := codec.Diagnose(encoded.Bytes())
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, notation)
			}
			if outputPath != "" {
				return writeIndex(reader.Index(), outputPath)
			}
			return nil
		},
	}
}
