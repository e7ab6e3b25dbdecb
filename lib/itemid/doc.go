// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package itemid defines the content address of a data item.
//
// An item identifier is the SHA-256 digest of the item's signature.
// Its canonical text form is 43 characters of unpadded URL-safe
// base64, which is how identifiers appear in bundle listings, logs,
// CLI output, and the bundle index sidecar. On the wire (in a bundle
// header) the raw 32 bytes are stored.
//
// The package also carries the unpadded base64url helpers used for
// tag names and values, so that every text encoding in the format
// comes from one place.
package itemid
