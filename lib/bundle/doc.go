// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle implements the bundle container: a header listing
// item lengths and identifiers, followed by the serialized items
// back to back.
//
// Header layout (integers little-endian, 32 bytes wide):
//
//	item count                       32 bytes
//	per item: length, raw identifier 32 + 32 bytes
//
// The header is 32 + 64·n bytes. Entry order is physical order: the
// item for entry k starts at
//
//	Size() + length(0) + ... + length(k-1)
//
// [Header.ByteOffsetOf] computes that with arbitrary precision by
// walking the entries. [Header.Index] precomputes every offset as a
// uint64 prefix sum for O(1) lookup, and [EncodeIndex] writes it as a
// CBOR sidecar file so that a reader can seek straight to an item
// without decoding the header at all. The sidecar carries a BLAKE3
// checksum of the header bytes it was built from; [OpenWithIndex]
// rejects a sidecar that belongs to a different bundle.
//
// [Pack] writes a complete bundle from signed items. [Reader] opens
// items inside an existing bundle by identifier and verifies them,
// checking that each item's own identifier matches its header entry.
//
// Bundles conventionally travel inside a wrapping data item tagged
// with [FormatTags]. The tags are informational; nothing here
// requires them.
package bundle
