// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"math/big"
)

const (
	rsaModulusBits = 4096
	rsaExponent    = 65537
)

var pssSignOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
var pssVerifyOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}

// RSASigner signs PS256_65537 items with a 4096-bit RSA key.
type RSASigner struct {
	key   *rsa.PrivateKey
	owner []byte
}

// NewRSASigner wraps key. The key must have a 4096-bit modulus and
// public exponent 65537.
func NewRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	if key.N.BitLen() != rsaModulusBits {
		return nil, fmt.Errorf("%w: RSA modulus is %d bits, want %d", ErrInvalidKey, key.N.BitLen(), rsaModulusBits)
	}
	if key.E != rsaExponent {
		return nil, fmt.Errorf("%w: RSA exponent is %d, want %d", ErrInvalidKey, key.E, rsaExponent)
	}
	owner := make([]byte, rsaModulusBits/8)
	key.N.FillBytes(owner)
	return &RSASigner{key: key, owner: owner}, nil
}

// GenerateRSA creates a signer with a fresh 4096-bit key.
func GenerateRSA() (*RSASigner, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaModulusBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	return NewRSASigner(key)
}

// Key returns the private key.
func (s *RSASigner) Key() *rsa.PrivateKey { return s.key }

func (s *RSASigner) Type() Type    { return TypePS256 }
func (s *RSASigner) Owner() []byte { return s.owner }

// Sign produces an RSASSA-PSS signature over SHA-256(message) with the
// maximum salt length the key allows.
func (s *RSASigner) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	signature, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], pssSignOptions)
	if err != nil {
		return nil, fmt.Errorf("RSA-PSS signing: %w", err)
	}
	return signature, nil
}

type rsaVerifier struct{}

// Verify accepts any PSS salt length, matching signers that use either
// the digest length or the maximum.
func (rsaVerifier) Verify(owner, message, signature []byte) (bool, error) {
	if err := checkLength("RSA owner", len(owner), rsaModulusBits/8); err != nil {
		return false, err
	}
	if len(signature) != rsaModulusBits/8 {
		return false, nil
	}
	public := &rsa.PublicKey{N: new(big.Int).SetBytes(owner), E: rsaExponent}
	digest := sha256.Sum256(message)
	return rsa.VerifyPSS(public, crypto.SHA256, digest[:], signature, pssVerifyOptions) == nil, nil
}
