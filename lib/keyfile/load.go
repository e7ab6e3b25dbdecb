// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyfile

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/databundle/lib/signature"
)

// Options controls LoadFile.
type Options struct {
	// Type narrows the signer type. Zero accepts the key's natural
	// type.
	Type signature.Type

	// IdentityFile is the age identity file used when the key file is
	// sealed. Empty is fine for unsealed keys.
	IdentityFile string
}

// LoadFile reads the key at path, opening it with the age identity when
// it is sealed, and returns a signer.
func LoadFile(path string, options Options) (signature.Signer, error) {
	raw, err := readProtected(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	defer raw.Close()

	material := raw
	if IsSealed(raw.Bytes()) {
		if options.IdentityFile == "" {
			return nil, fmt.Errorf("%s: %w", path, ErrNoIdentity)
		}
		identities, err := readProtected(options.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("reading age identity file: %w", err)
		}
		defer identities.Close()
		material, err = Open(raw.Bytes(), identities)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer material.Close()
	}

	signer, err := Parse(material.Bytes(), options.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return signer, nil
}

// WriteFile writes the signer's private key to path as a JWK, sealed to
// recipients when any are given. The file is created with mode 0600 and
// must not already exist.
func WriteFile(path string, signer signature.Signer, recipients []string) error {
	encoded, err := Marshal(signer)
	if err != nil {
		return err
	}
	defer zero(encoded)
	if len(recipients) > 0 {
		sealed, err := Seal(encoded, recipients)
		if err != nil {
			return err
		}
		encoded = sealed
	} else {
		encoded = append(encoded, '\n')
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(encoded); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func readProtected(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buffer, err := NewBuffer(data)
	if err != nil {
		zero(data)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buffer, nil
}
