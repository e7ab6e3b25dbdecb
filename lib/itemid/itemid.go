// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package itemid

import (
	"crypto/sha256"
	"errors"
	"fmt"

	cristalbase64 "github.com/cristalhq/base64"
)

// Size is the byte length of a raw identifier.
const Size = 32

// TextSize is the length of the canonical text form.
const TextSize = 43

// ErrInvalid is returned when a string is not a canonical identifier.
var ErrInvalid = errors.New("invalid item identifier")

// ID is the raw 32-byte identifier.
type ID [Size]byte

// FromSignature derives the identifier of an item from its signature.
func FromSignature(signature []byte) ID {
	return ID(sha256.Sum256(signature))
}

// String returns the canonical 43-character text form.
func (id ID) String() string {
	return Encode(id[:])
}

// Parse parses the canonical text form. Non-canonical encodings (wrong
// length, padding, or trailing bits that would not round-trip) are
// rejected so that one item has exactly one text identifier.
func Parse(text string) (ID, error) {
	var id ID
	if len(text) != TextSize {
		return id, fmt.Errorf("%w: %q is %d characters, want %d", ErrInvalid, text, len(text), TextSize)
	}
	decoded, err := Decode(text)
	if err != nil {
		return id, fmt.Errorf("%w: %q: %w", ErrInvalid, text, err)
	}
	if len(decoded) != Size {
		return id, fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalid, text, len(decoded), Size)
	}
	copy(id[:], decoded)
	if id.String() != text {
		return ID{}, fmt.Errorf("%w: %q is not canonical", ErrInvalid, text)
	}
	return id, nil
}

// FromBytes copies a raw 32-byte identifier.
func FromBytes(raw []byte) (ID, error) {
	var id ID
	if len(raw) != Size {
		return id, fmt.Errorf("%w: %d bytes, want %d", ErrInvalid, len(raw), Size)
	}
	copy(id[:], raw)
	return id, nil
}

// Encode returns the unpadded base64url encoding of data.
func Encode(data []byte) string {
	return cristalbase64.RawURLEncoding.EncodeToString(data)
}

// Decode decodes unpadded base64url text.
func Decode(text string) ([]byte, error) {
	return cristalbase64.RawURLEncoding.DecodeString(text)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
