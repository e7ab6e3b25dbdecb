// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// ErrNoIdentity is returned when sealed key material is loaded without
// an age identity to open it.
var ErrNoIdentity = errors.New("key file is age-sealed but no identity was given")

var (
	binaryHeader  = []byte("age-encryption.org/")
	armoredHeader = []byte(armor.Header)
)

// IsSealed reports whether data is an age file, binary or armored.
func IsSealed(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(trimmed, binaryHeader) || bytes.HasPrefix(trimmed, armoredHeader)
}

// Seal encrypts plaintext to the given age x25519 recipients and
// returns the armored ciphertext.
func Seal(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	armored := armor.NewWriter(&ciphertext)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Open decrypts sealed key material with the identities in identities
// (the contents of an age identity file). The plaintext is returned in
// a Buffer the caller must close.
func Open(ciphertext []byte, identities *Buffer) (*Buffer, error) {
	if identities == nil {
		return nil, ErrNoIdentity
	}
	parsed, err := age.ParseIdentities(bytes.NewReader(identities.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing age identities: %w", err)
	}

	var source io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimLeft(ciphertext, " \t\r\n"), armoredHeader) {
		source = armor.NewReader(source)
	}
	reader, err := age.Decrypt(source, parsed...)
	if err != nil {
		return nil, fmt.Errorf("decrypting key file: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		zero(plaintext)
		return nil, fmt.Errorf("reading decrypted key: %w", err)
	}
	return NewBuffer(plaintext)
}

// GenerateIdentity returns a new age x25519 identity file body and its
// recipient string.
func GenerateIdentity() (identity *Buffer, recipient string, err error) {
	generated, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, "", fmt.Errorf("generating age identity: %w", err)
	}
	identity, err = NewBuffer([]byte(generated.String() + "\n"))
	if err != nil {
		return nil, "", err
	}
	return identity, generated.Recipient().String(), nil
}
