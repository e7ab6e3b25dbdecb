// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-bundle signs data items and packs them into bundles.
//
// Subcommands:
//
//	key generate     new JWK signing key, optionally age-sealed
//	item sign        sign a payload into a data item
//	item verify      check one item's signature (exit 1 when invalid)
//	item inspect     show an item header
//	bundle pack      write items into a bundle
//	bundle inspect   list a bundle's entries and offsets
//	bundle verify    check every item in a bundle (exit 1 when any is invalid)
//	bundle extract   copy one item out of a bundle
//	bundle index     write the CBOR offset sidecar
//
// Configuration comes from --config or BUREAU_BUNDLE_CONFIG; see
// lib/config. Binary output never goes to a terminal.
package main
