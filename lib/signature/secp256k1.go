// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const (
	secp256k1SignatureLength = 65
	// recoveryBase is the Ethereum "v" offset, and also the offset
	// ecdsa.SignCompact uses for an uncompressed key.
	recoveryBase = 27
)

// Secp256k1Signer signs ES256K and ES256K_Compact items. The two types
// share a key and signature form and differ only in how the owner
// public key is serialized.
type Secp256k1Signer struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// NewSecp256k1Signer wraps key for type t, which must be TypeES256K or
// TypeES256KCompact.
func NewSecp256k1Signer(key *secp256k1.PrivateKey, t Type) (*Secp256k1Signer, error) {
	switch t {
	case TypeES256K:
		return &Secp256k1Signer{key: key}, nil
	case TypeES256KCompact:
		return &Secp256k1Signer{key: key, compressed: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a secp256k1 type", ErrInvalidKey, t)
	}
}

// GenerateSecp256k1 creates a signer with a fresh key for type t.
func GenerateSecp256k1(t Type) (*Secp256k1Signer, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating secp256k1 key: %w", err)
	}
	return NewSecp256k1Signer(key, t)
}

// Key returns the private key.
func (s *Secp256k1Signer) Key() *secp256k1.PrivateKey { return s.key }

func (s *Secp256k1Signer) Type() Type {
	if s.compressed {
		return TypeES256KCompact
	}
	return TypeES256K
}

func (s *Secp256k1Signer) Owner() []byte {
	if s.compressed {
		return s.key.PubKey().SerializeCompressed()
	}
	return s.key.PubKey().SerializeUncompressed()
}

// Sign returns r ‖ s ‖ v over the Ethereum personal-message hash of
// message, with v = 27 + recovery id.
func (s *Secp256k1Signer) Sign(message []byte) ([]byte, error) {
	// SignCompact lays the signature out as v ‖ r ‖ s with v offset by
	// 27 for an uncompressed key.
	compact := ecdsa.SignCompact(s.key, personalMessageHash(message), false)
	signature := make([]byte, 0, secp256k1SignatureLength)
	signature = append(signature, compact[1:]...)
	signature = append(signature, compact[0])
	return signature, nil
}

type secp256k1Verifier struct {
	compressed bool
}

func (v secp256k1Verifier) Verify(owner, message, signature []byte) (bool, error) {
	wantOwner := 65
	if v.compressed {
		wantOwner = 33
	}
	if err := checkLength("secp256k1 owner", len(owner), wantOwner); err != nil {
		return false, err
	}
	expected, err := secp256k1.ParsePubKey(owner)
	if err != nil {
		return false, fmt.Errorf("%w: parsing secp256k1 owner: %w", ErrInvalidKey, err)
	}
	if len(signature) != secp256k1SignatureLength {
		return false, nil
	}

	recovery := signature[64]
	if recovery < recoveryBase {
		// Some signers emit the bare recovery id.
		recovery += recoveryBase
	}
	if recovery != recoveryBase && recovery != recoveryBase+1 {
		return false, nil
	}
	compact := make([]byte, 0, secp256k1SignatureLength)
	compact = append(compact, recovery)
	compact = append(compact, signature[:64]...)

	recovered, _, err := ecdsa.RecoverCompact(compact, personalMessageHash(message))
	if err != nil {
		return false, nil
	}
	return bytes.Equal(recovered.SerializeCompressed(), expected.SerializeCompressed()), nil
}

// personalMessageHash is Keccak-256 over the Ethereum signed-message
// envelope: "\x19Ethereum Signed Message:\n" ‖ decimal(len) ‖ message.
func personalMessageHash(message []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte("\x19Ethereum Signed Message:\n"))
	hash.Write([]byte(strconv.Itoa(len(message))))
	hash.Write(message)
	return hash.Sum(nil)
}
