// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package numeric encodes and decodes the fixed-width little-endian
// unsigned integers used by the bundle and data item wire formats.
//
// Two families exist. [EncodeUint] and [DecodeUint] work on uint64 and
// serve the small counters in an item header (the 2-byte signature
// type, the 8-byte tag count and tag section length). [EncodeBigUint]
// and [DecodeBigUint] work on *big.Int and serve the 32-byte count and
// length fields of a bundle header, whose magnitude can exceed any
// native integer.
//
// A value that does not fit in the requested width is rejected with
// [ErrOverflow]. The wire format never needs truncation, and silently
// dropping high-order bytes would corrupt offsets without any visible
// failure.
//
// This package has no dependencies on other packages in this module.
package numeric
