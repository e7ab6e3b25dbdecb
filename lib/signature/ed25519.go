// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
)

// Ed25519Signer signs Ed25519 items.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// NewEd25519Signer wraps a 64-byte private key.
func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if err := checkLength("Ed25519 private key", len(key), ed25519.PrivateKeySize); err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: key}, nil
}

// NewEd25519SignerFromSeed derives the key from a 32-byte seed.
func NewEd25519SignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if err := checkLength("Ed25519 seed", len(seed), ed25519.SeedSize); err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// GenerateEd25519 creates a signer with a fresh key.
func GenerateEd25519() (*Ed25519Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating Ed25519 key: %w", err)
	}
	return &Ed25519Signer{key: key}, nil
}

// Seed returns the 32-byte private seed.
func (s *Ed25519Signer) Seed() []byte { return s.key.Seed() }

func (s *Ed25519Signer) Type() Type { return TypeEd25519 }

func (s *Ed25519Signer) Owner() []byte {
	return []byte(s.key.Public().(ed25519.PublicKey))
}

func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.key, message), nil
}

type ed25519Verifier struct{}

func (ed25519Verifier) Verify(owner, message, signature []byte) (bool, error) {
	if err := checkLength("Ed25519 owner", len(owner), ed25519.PublicKeySize); err != nil {
		return false, err
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(owner), message, signature), nil
}
