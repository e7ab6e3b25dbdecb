// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyfile

import (
	"bytes"
	stded25519 "crypto/ed25519"
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-jose/go-jose/v4"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/signature"
)

// ErrUnrecognized is returned for key material in none of the
// supported forms.
var ErrUnrecognized = errors.New("unrecognized key format")

// ErrPublicOnly is returned for a JWK that carries no private part.
var ErrPublicOnly = errors.New("key file holds a public key only")

const secp256k1Curve = "secp256k1"

// secp256k1JWK is the JWK shape for secp256k1 keys, which go-jose does
// not model.
type secp256k1JWK struct {
	KeyType string `json:"kty"`
	Curve   string `json:"crv"`
	D       string `json:"d,omitempty"`
	X       string `json:"x"`
	Y       string `json:"y"`
}

// Parse builds a signer from key material. want selects between
// ES256K and ES256K_Compact for secp256k1 keys and is checked against
// the key's family for the other forms; zero accepts whatever the key
// is (ES256K for secp256k1).
func Parse(data []byte, want signature.Type) (signature.Signer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 64 {
		if scalar, err := hex.DecodeString(string(trimmed)); err == nil {
			defer zero(scalar)
			return secp256k1Signer(scalar, want)
		}
	}
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '/') {
		return nil, ErrUnrecognized
	}

	document := jsonc.ToJSON(trimmed)
	defer zero(document)

	var ecKey secp256k1JWK
	if err := json.Unmarshal(document, &ecKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
	}
	if ecKey.KeyType == "EC" && ecKey.Curve == secp256k1Curve {
		if ecKey.D == "" {
			return nil, ErrPublicOnly
		}
		scalar, err := itemid.Decode(ecKey.D)
		if err != nil {
			return nil, fmt.Errorf("decoding secp256k1 d: %w", err)
		}
		defer zero(scalar)
		return secp256k1Signer(scalar, want)
	}

	var key jose.JSONWebKey
	if err := key.UnmarshalJSON(document); err != nil {
		return nil, fmt.Errorf("parsing JWK: %w", err)
	}
	if key.IsPublic() {
		return nil, ErrPublicOnly
	}
	var signer signature.Signer
	var err error
	switch private := key.Key.(type) {
	case *rsa.PrivateKey:
		signer, err = signature.NewRSASigner(private)
	case stded25519.PrivateKey:
		signer, err = signature.NewEd25519SignerFromSeed(private.Seed())
	default:
		return nil, fmt.Errorf("%w: JWK key type %T", ErrUnrecognized, key.Key)
	}
	if err != nil {
		return nil, err
	}
	if want != 0 && want != signer.Type() {
		return nil, fmt.Errorf("%w: key is %s, want %s", signature.ErrInvalidKey, signer.Type(), want)
	}
	return signer, nil
}

func secp256k1Signer(scalar []byte, want signature.Type) (signature.Signer, error) {
	if len(scalar) != 32 {
		return nil, fmt.Errorf("%w: secp256k1 scalar is %d bytes, want 32", signature.ErrInvalidKey, len(scalar))
	}
	if want == 0 {
		want = signature.TypeES256K
	}
	return signature.NewSecp256k1Signer(secp256k1.PrivKeyFromBytes(scalar), want)
}

// Marshal encodes the private key of signer as an indented JWK.
func Marshal(signer signature.Signer) ([]byte, error) {
	switch typed := signer.(type) {
	case *signature.RSASigner:
		return marshalJOSE(typed.Key())
	case *signature.Ed25519Signer:
		return marshalJOSE(stded25519.NewKeyFromSeed(typed.Seed()))
	case *signature.Secp256k1Signer:
		public := typed.Key().PubKey()
		var x, y [32]byte
		public.X().FillBytes(x[:])
		public.Y().FillBytes(y[:])
		return json.MarshalIndent(secp256k1JWK{
			KeyType: "EC",
			Curve:   secp256k1Curve,
			D:       itemid.Encode(typed.Key().Serialize()),
			X:       itemid.Encode(x[:]),
			Y:       itemid.Encode(y[:]),
		}, "", "  ")
	default:
		return nil, fmt.Errorf("%w: cannot marshal %T", ErrUnrecognized, signer)
	}
}

func marshalJOSE(key any) ([]byte, error) {
	compact, err := jose.JSONWebKey{Key: key}.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding JWK: %w", err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "  "); err != nil {
		return nil, err
	}
	return indented.Bytes(), nil
}
