// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/cli"
	"github.com/bureau-foundation/databundle/lib/dataitem"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/keyfile"
	"github.com/bureau-foundation/databundle/lib/source"
	"github.com/bureau-foundation/databundle/lib/tags"
)

func (a *application) itemCommand() *cli.Command {
	return &cli.Command{
		Name:    "item",
		Summary: "Sign, verify, and inspect data items",
		Subcommands: []*cli.Command{
			a.itemSignCommand(),
			a.itemVerifyCommand(),
			a.itemInspectCommand(),
		},
	}
}

func (a *application) itemSignCommand() *cli.Command {
	var (
		keyPath      string
		typeName     string
		identityPath string
		tagArgs      []string
		target       string
		anchor       string
		outputPath   string
	)

	return &cli.Command{
		Name:    "sign",
		Summary: "Sign a payload into a data item",
		Description: `Sign PAYLOAD and write the resulting data item (header then payload).

The payload is streamed twice: once to hash it for the signature and
once to write the item. If it changes in between, nothing is written.

Tags are given as NAME=VALUE and stored in order. --target takes an item
identifier; --anchor takes 32 bytes in unpadded base64url.

The output path suffix selects compression (.zst, .lz4). Without one,
output.compression from the configuration applies and its suffix is
appended. Use -o - to write to a pipe.`,
		Usage: "bureau-bundle item sign [flags] -o OUT PAYLOAD",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sign", pflag.ContinueOnError)
			flagSet.StringVar(&keyPath, "key", "", "signing key file (default: signing.key_file)")
			flagSet.StringVar(&typeName, "type", "", "expected signature type (default: signing.type)")
			flagSet.StringVar(&identityPath, "identity", "", "age identity for sealed keys (default: signing.age_identity_file)")
			flagSet.StringArrayVar(&tagArgs, "tag", nil, "tag as NAME=VALUE (repeatable)")
			flagSet.StringVar(&target, "target", "", "target item identifier")
			flagSet.StringVar(&anchor, "anchor", "", "32-byte anchor in base64url")
			flagSet.StringVarP(&outputPath, "output", "o", "", "output item file, or - for stdout")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Sign a file with two tags",
				Command:     "bureau-bundle item sign --key signer.jwk --tag Content-Type=application/json --tag App-Name=ledger -o entry.item entry.json",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one PAYLOAD argument, got %d", len(args))
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}

			settings := a.settings()
			if keyPath == "" {
				keyPath = settings.Signing.KeyFile
			}
			if keyPath == "" {
				return fmt.Errorf("no signing key: pass --key or set signing.key_file")
			}
			if identityPath == "" {
				identityPath = settings.Signing.AgeIdentityFile
			}
			signatureType, err := a.signatureType(typeName)
			if err != nil {
				return err
			}

			fields, err := headerFields(tagArgs, target, anchor)
			if err != nil {
				return err
			}
			header, err := dataitem.NewHeader(fields)
			if err != nil {
				return err
			}

			signer, err := keyfile.LoadFile(keyPath, keyfile.Options{
				Type:         signatureType,
				IdentityFile: identityPath,
			})
			if err != nil {
				return err
			}

			payload := source.Stable(source.Path(args[0]))
			item, err := dataitem.Sign(ctx, header, signer, payload)
			if err != nil {
				return fmt.Errorf("signing %s: %w", args[0], err)
			}

			compression, err := a.outputCompression()
			if err != nil {
				return err
			}
			output, err := cli.CreateOutput(outputPath, compression)
			if err != nil {
				return err
			}
			stream, err := item.Open(ctx)
			if err != nil {
				output.Abort()
				return err
			}
			if err := writeOutput(output, stream); err != nil {
				return fmt.Errorf("writing %s: %w", output.Path(), err)
			}

			logger.Info("signed item",
				"command", "item/sign",
				"id", item.Header.ID(),
				"type", signer.Type().String(),
				"output", output.Path(),
			)
			if output.Path() != "-" {
				fmt.Fprintln(a.stdout, item.Header.ID())
			}
			return nil
		},
	}
}

// headerFields builds unsigned header fields from command-line text.
func headerFields(tagArgs []string, target, anchor string) (dataitem.Fields, error) {
	var fields dataitem.Fields
	for _, argument := range tagArgs {
		name, value, ok := strings.Cut(argument, "=")
		if !ok || name == "" {
			return fields, fmt.Errorf("invalid --tag %q: want NAME=VALUE", argument)
		}
		fields.Tags = append(fields.Tags, tags.FromText(name, value))
	}
	if target != "" {
		id, err := itemid.Parse(target)
		if err != nil {
			return fields, fmt.Errorf("invalid --target: %w", err)
		}
		fields.Target = id[:]
	}
	if anchor != "" {
		raw, err := itemid.Decode(anchor)
		if err != nil {
			return fields, fmt.Errorf("invalid --anchor: %w", err)
		}
		if len(raw) != dataitem.ReferenceSize {
			return fields, fmt.Errorf("invalid --anchor: %d bytes, want %d", len(raw), dataitem.ReferenceSize)
		}
		fields.Anchor = raw
	}
	return fields, nil
}

// writeOutput copies stream to output and commits it. On any error the
// output is discarded.
func writeOutput(output cli.Output, stream io.ReadCloser) error {
	_, err := io.Copy(output, stream)
	if closeErr := stream.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		output.Abort()
		if errors.Is(err, source.ErrSourceChanged) {
			return fmt.Errorf("payload changed after it was signed: %w", err)
		}
		return err
	}
	return output.Commit()
}

func (a *application) itemVerifyCommand() *cli.Command {
	var outputJSON bool

	return &cli.Command{
		Name:    "verify",
		Summary: "Verify a data item's signature",
		Description: `Check the signature of the data item in FILE against its payload.

Exits 0 when the signature is valid and 1 when it is not. A file that
cannot be decoded is an error.`,
		Usage: "bureau-bundle item verify [--json] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument, got %d", len(args))
			}
			item, err := dataitem.LoadFile(ctx, args[0])
			if err != nil {
				return err
			}
			valid, err := item.Verify(ctx)
			if err != nil {
				return fmt.Errorf("verifying %s: %w", args[0], err)
			}
			logger.Debug("verified item", "command", "item/verify", "id", item.Header.ID(), "valid", valid)

			if outputJSON {
				if err := cli.WriteJSON(a.stdout, struct {
					ID    string `json:"id"`
					Valid bool   `json:"valid"`
				}{item.Header.ID(), valid}); err != nil {
					return err
				}
			} else {
				printStatus(a.stdout, item.Header.ID(), valid, "")
			}
			if !valid {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// itemSummary is the inspect view of a data item header.
type itemSummary struct {
	ID          string     `json:"id"`
	Type        string     `json:"signature_type"`
	TypeNumber  uint16     `json:"signature_type_number"`
	Owner       string     `json:"owner"`
	Target      string     `json:"target,omitempty"`
	Anchor      string     `json:"anchor,omitempty"`
	Tags        []tagEntry `json:"tags"`
	HeaderSize  int64      `json:"header_size"`
	PayloadSize int64      `json:"payload_size"`
}

// tagEntry shows a tag decoded when it is valid UTF-8, and in its wire
// form otherwise.
type tagEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Wire  bool   `json:"wire,omitempty"`
}

func summarizeItem(item *dataitem.Item) (itemSummary, error) {
	header := item.Header
	payloadSize, err := item.Payload.Size()
	if err != nil {
		return itemSummary{}, fmt.Errorf("sizing payload: %w", err)
	}
	summary := itemSummary{
		ID:          header.ID(),
		Type:        header.Type().String(),
		TypeNumber:  uint16(header.Type()),
		Owner:       itemid.Encode(header.Owner()),
		HeaderSize:  header.Size(),
		PayloadSize: payloadSize,
		Tags:        []tagEntry{},
	}
	if target := header.Target(); target != nil {
		summary.Target = itemid.Encode(target)
	}
	if anchor := header.Anchor(); anchor != nil {
		summary.Anchor = itemid.Encode(anchor)
	}
	for _, tag := range header.Tags() {
		name, value, err := tag.Text()
		if err != nil || !utf8.ValidString(name) || !utf8.ValidString(value) {
			summary.Tags = append(summary.Tags, tagEntry{Name: tag.Name, Value: tag.Value, Wire: true})
			continue
		}
		summary.Tags = append(summary.Tags, tagEntry{Name: name, Value: value})
	}
	return summary, nil
}

func (a *application) itemInspectCommand() *cli.Command {
	var outputJSON bool

	return &cli.Command{
		Name:    "inspect",
		Summary: "Show a data item's header",
		Usage:   "bureau-bundle item inspect [--json] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument, got %d", len(args))
			}
			item, err := dataitem.LoadFile(ctx, args[0])
			if err != nil {
				return err
			}
			summary, err := summarizeItem(item)
			if err != nil {
				return err
			}
			if outputJSON {
				return cli.WriteJSON(a.stdout, summary)
			}
			writeItemSummary(a.stdout, summary)
			return nil
		},
	}
}

func writeItemSummary(w io.Writer, summary itemSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", summary.ID)
	fmt.Fprintf(tw, "type:\t%s (%d)\n", summary.Type, summary.TypeNumber)
	fmt.Fprintf(tw, "owner:\t%s\n", summary.Owner)
	fmt.Fprintf(tw, "target:\t%s\n", orDash(summary.Target))
	fmt.Fprintf(tw, "anchor:\t%s\n", orDash(summary.Anchor))
	fmt.Fprintf(tw, "header size:\t%d\n", summary.HeaderSize)
	fmt.Fprintf(tw, "payload size:\t%d\n", summary.PayloadSize)
	fmt.Fprintf(tw, "tags:\t%d\n", len(summary.Tags))
	for _, tag := range summary.Tags {
		marker := ""
		if tag.Wire {
			marker = " (base64url)"
		}
		fmt.Fprintf(tw, "  %s\t%s%s\n", tag.Name, tag.Value, marker)
	}
	tw.Flush()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
