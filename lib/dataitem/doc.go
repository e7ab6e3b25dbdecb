// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataitem implements the signed data item: a binary header
// followed by an opaque payload of any size.
//
// Header layout (integers little-endian):
//
//	signature type   2 bytes
//	signature        registry SignatureLength bytes
//	owner            registry OwnerLength bytes
//	target           presence byte, then 32 bytes when present
//	anchor           presence byte, then 32 bytes when present
//	tag count        8 bytes
//	tag bytes length 8 bytes
//	tag bytes        Avro-encoded tag array (lib/tags)
//
// The signature covers the deep hash (lib/deephash) of
//
//	["dataitem", "1", decimal(type), owner, target or empty,
//	 anchor or empty, tag bytes, payload stream]
//
// so the payload is hashed as a stream and never buffered. The item
// identifier is base64url(SHA-256(signature)), 43 characters.
//
// A [Header] is built with [NewHeader] or [Decode], signed once with
// [Header.Sign], and checked with [Header.Verify]. Serialization is
// lazy: [Header.Segments] returns the existing field slices in wire
// order and [Header.NewReader] streams them without copying.
//
// An [Item] pairs a header with a reopenable payload source.
// [Item.Open] streams header then payload; the payload is opened only
// after the header stream is exhausted and closed.
package dataitem
