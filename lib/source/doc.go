// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source provides reopenable byte sources and atomic file
// sinks for item payloads and bundles.
//
// A [Source] is a capability to open an independent stream over the
// same bytes, any number of times. Signing reads a payload once to
// hash it and again to write it, so a plain io.Reader is not enough.
// Implementations:
//
//   - [Bytes] over an in-memory slice.
//   - [File] over a path, with sequential read-ahead advice.
//   - [Path], which picks [File] or a decompressing source from the
//     file suffix (".zst" for zstd, ".lz4" for LZ4 frames).
//   - [Stable], which fingerprints the first complete read with BLAKE3
//     and fails any later read whose bytes differ with
//     [ErrSourceChanged]. A payload edited between signing and writing
//     would otherwise produce an item whose signature does not match.
//
// [Create] opens a [Sink]: a temporary file next to the destination,
// optionally compressed, renamed into place by [Sink.Commit].
package source
