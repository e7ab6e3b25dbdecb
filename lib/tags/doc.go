// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tags encodes the tag section of a data item header.
//
// The tag section is the Avro binary encoding of [Schema], an array of
// name/value string records, encoded and decoded with goavro.
//
// Encoding writes all tags as a single block: the item count, each
// tag's name and value as length-prefixed strings, and a zero count
// terminating the array. An empty list is the single byte 0x00. The
// tag section is covered by the item signature, so other valid Avro
// framings (several blocks, block byte sizes) would change the
// signature data. [Decode] accepts every valid framing and rejects
// trailing bytes; the data item decoder insists on the single-block
// form.
//
// Tag names and values carried in a data item are themselves base64url
// text. [FromText] and [Tag.Text] convert between that form and the
// human-readable strings.
package tags
