// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupported is returned for a signature type with no registry
// entry or no provider.
var ErrUnsupported = errors.New("unsupported signature type")

// ErrInvalidKey is returned when key material does not fit the scheme
// it was offered to (wrong size, wrong exponent, wrong curve).
var ErrInvalidKey = errors.New("invalid key for signature type")

// Type identifies a signature scheme on the wire.
type Type uint16

const (
	TypePS256         Type = 1
	TypeEd25519       Type = 2
	TypeES256K        Type = 3
	TypeES256KCompact Type = 4
)

// Params describes the field sizes of one signature type.
type Params struct {
	Type            Type
	Name            string
	SignatureLength int
	OwnerLength     int
}

// registry is indexed by Type. Index 0 is unused.
var registry = [...]Params{
	TypePS256:         {Type: TypePS256, Name: "PS256_65537", SignatureLength: 512, OwnerLength: 512},
	TypeEd25519:       {Type: TypeEd25519, Name: "Ed25519", SignatureLength: 64, OwnerLength: 32},
	TypeES256K:        {Type: TypeES256K, Name: "ES256K", SignatureLength: 65, OwnerLength: 65},
	TypeES256KCompact: {Type: TypeES256KCompact, Name: "ES256K_Compact", SignatureLength: 65, OwnerLength: 33},
}

// Lookup returns the registry entry for t.
func Lookup(t Type) (Params, error) {
	if t == 0 || int(t) >= len(registry) {
		return Params{}, fmt.Errorf("%w: %d", ErrUnsupported, uint16(t))
	}
	return registry[t], nil
}

// Types returns every registered type in numeric order.
func Types() []Type {
	types := make([]Type, 0, len(registry)-1)
	for index := 1; index < len(registry); index++ {
		types = append(types, Type(index))
	}
	return types
}

// ParseType accepts a registry name ("Ed25519"), a case-insensitive
// short alias ("ed25519", "ps256", "es256k", "es256k-compact"), or the
// decimal type number.
func ParseType(text string) (Type, error) {
	for _, params := range registry[1:] {
		if text == params.Name {
			return params.Type, nil
		}
	}
	switch text {
	case "ps256", "rsa", "PS256":
		return TypePS256, nil
	case "ed25519":
		return TypeEd25519, nil
	case "es256k", "secp256k1":
		return TypeES256K, nil
	case "es256k-compact", "ES256K-Compact":
		return TypeES256KCompact, nil
	}
	number, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, text)
	}
	if _, err := Lookup(Type(number)); err != nil {
		return 0, err
	}
	return Type(number), nil
}

// String returns the registry name, or the number for unknown types.
func (t Type) String() string {
	if params, err := Lookup(t); err == nil {
		return params.Name
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Signer produces signatures of one type. Implementations hold the
// private key.
type Signer interface {
	// Type returns the signature type this signer produces.
	Type() Type

	// Owner returns the public key bytes in their wire form. The
	// length matches the registry's OwnerLength.
	Owner() []byte

	// Sign signs message. The result length matches the registry's
	// SignatureLength.
	Sign(message []byte) ([]byte, error)
}

// Verifier checks signatures of one type against an owner public key.
type Verifier interface {
	// Verify reports whether signature is a valid signature of message
	// by owner. An error means verification could not be carried out
	// (malformed owner, for instance), not that the signature is bad.
	Verify(owner, message, signature []byte) (bool, error)
}

// VerifierFor returns the verifier for t.
func VerifierFor(t Type) (Verifier, error) {
	switch t {
	case TypePS256:
		return rsaVerifier{}, nil
	case TypeEd25519:
		return ed25519Verifier{}, nil
	case TypeES256K:
		return secp256k1Verifier{compressed: false}, nil
	case TypeES256KCompact:
		return secp256k1Verifier{compressed: true}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, uint16(t))
	}
}

// Generate creates a signer with a fresh random key of type t.
func Generate(t Type) (Signer, error) {
	switch t {
	case TypePS256:
		return GenerateRSA()
	case TypeEd25519:
		return GenerateEd25519()
	case TypeES256K, TypeES256KCompact:
		return GenerateSecp256k1(t)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, uint16(t))
	}
}

func checkLength(kind string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrInvalidKey, kind, got, want)
	}
	return nil
}
