// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyfile loads and writes the private keys that sign data
// items.
//
// Three on-disk forms are understood:
//
//   - JSON Web Key, optionally with comments and trailing commas. RSA
//     keys (kty "RSA") become PS256 signers, OKP/Ed25519 keys become
//     Ed25519 signers, and EC keys on curve "secp256k1" become ES256K
//     or ES256K_Compact signers.
//   - A bare secp256k1 private scalar as 64 hex characters.
//   - Either of the above sealed with age to one or more x25519
//     recipients, recognised by the age header and opened with an
//     identity file.
//
// Key bytes are read into a [Buffer]: mmap memory outside the Go heap,
// locked against swap, excluded from core dumps, and zeroed on Close.
// Parsed key objects (big.Int, curve scalars) necessarily live on the
// heap; the buffer bounds how long the raw file contents linger.
package keyfile
