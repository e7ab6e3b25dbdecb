// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signature is the registry of data item signature types and
// the cryptographic providers behind them.
//
// Every data item header begins with a two-byte signature type. The
// type fixes the byte length of the signature and owner fields that
// follow, so a decoder must consult [Lookup] before it can read any
// further. The table is static and read-only:
//
//	1  PS256_65537     RSA-4096 PSS, SHA-256, e=65537   sig 512  owner 512
//	2  Ed25519         Ed25519                          sig  64  owner  32
//	3  ES256K          secp256k1, Ethereum personal-sign sig  65  owner  65
//	4  ES256K_Compact  secp256k1, compressed owner       sig  65  owner  33
//
// Signing and verification are exposed through the [Signer] and
// [Verifier] interfaces. Signers own private key material; verifiers
// are stateless and take the owner bytes from the header being checked.
//
// The message handed to a provider is the 48-byte deep hash of the
// item. Each scheme hashes it the way its ecosystem expects: PS256
// signs SHA-256(message), Ed25519 signs the message directly, and the
// secp256k1 schemes sign Keccak-256 of the Ethereum personal-message
// envelope. ES256K signatures are r ‖ s ‖ v with v = 27 + recovery id;
// the verifier recovers the public key and compares it to the owner.
package signature
