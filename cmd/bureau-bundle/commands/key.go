// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/databundle/cmd/bureau-bundle/cli"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/keyfile"
	"github.com/bureau-foundation/databundle/lib/signature"
)

func (a *application) keyCommand() *cli.Command {
	return &cli.Command{
		Name:    "key",
		Summary: "Manage signing keys",
		Subcommands: []*cli.Command{
			a.keyGenerateCommand(),
		},
	}
}

func (a *application) keyGenerateCommand() *cli.Command {
	var (
		typeName   string
		recipients []string
		outputPath string
	)

	return &cli.Command{
		Name:    "generate",
		Summary: "Generate a signing key file",
		Description: `Generate a new signing key and write it as a JWK file (mode 0600).

With one or more --recipient age public keys, the JWK is sealed to
those recipients and written ASCII-armored; "item sign" then needs the
matching identity via --identity or signing.age_identity_file.

The type defaults to signing.type from the configuration, then Ed25519.`,
		Usage: "bureau-bundle key generate [--type T] [--recipient age1...] -o FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flagSet.StringVar(&typeName, "type", "", "signature type: ps256, ed25519, es256k, es256k-compact")
			flagSet.StringArrayVar(&recipients, "recipient", nil, "age recipient to seal the key to (repeatable)")
			flagSet.StringVarP(&outputPath, "output", "o", "", "key file to create (must not exist)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Generate an Ethereum-style secp256k1 key",
				Command:     "bureau-bundle key generate --type es256k -o eth.jwk",
			},
			{
				Description: "Generate an RSA key sealed to an age recipient",
				Command:     "bureau-bundle key generate --type ps256 --recipient age1... -o release.jwk.age",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			signatureType, err := a.signatureType(typeName)
			if err != nil {
				return err
			}
			if signatureType == 0 {
				signatureType = signature.TypeEd25519
			}

			logger = logger.With("command", "key/generate", "type", signatureType.String())
			if signatureType == signature.TypePS256 {
				logger.Info("generating 4096-bit RSA key")
			}
			signer, err := signature.Generate(signatureType)
			if err != nil {
				return err
			}
			if err := keyfile.WriteFile(outputPath, signer, recipients); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
			logger.Debug("wrote key file", "path", outputPath, "sealed", len(recipients) > 0)

			fmt.Fprintf(a.stdout, "type:  %s\n", signatureType)
			fmt.Fprintf(a.stdout, "owner: %s\n", itemid.Encode(signer.Owner()))
			fmt.Fprintf(a.stdout, "file:  %s\n", outputPath)
			return nil
		},
	}
}

// signatureType resolves a --type flag, falling back to signing.type.
// Zero means no type was asked for.
func (a *application) signatureType(flagValue string) (signature.Type, error) {
	if flagValue != "" {
		return signature.ParseType(flagValue)
	}
	return a.settings().SignatureType()
}
