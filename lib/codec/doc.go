// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration for the module's
// sidecar files.
//
// Bundles and data items have a fixed binary layout of their own and
// do not go through this package. CBOR is used for the metadata that
// sits next to them: the bundle offset index written by
// "bureau-bundle bundle index" and read back by bundle readers that
// want O(1) lookup without decoding the bundle header.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same index always produces the same bytes, so a checksum over the
// file is stable. The decoder rejects duplicate map keys, since the
// index is read from disk and a duplicated "entries" key would let two
// writers disagree about what the file says.
//
//	data, err := codec.Marshal(index)
//	err = codec.Unmarshal(data, &index)
//
// Types that implement encoding.TextMarshaler (itemid.ID) are encoded
// as CBOR text strings, so the index carries the same 43-character
// identifiers users see on the command line.
//
// # Struct tags
//
// A `cbor` tag means the type is only ever CBOR. A `json` tag means the
// type is also printed by the CLI's --json output; fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent. Never use both
// on one field.
package codec
