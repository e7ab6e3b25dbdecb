// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the bundle packages.
//
// [TrackedSource] is an in-memory io.ReadCloser that counts Close calls
// and records reads after close. The codecs promise to release every
// stream exactly once (including on failure and cancellation); tests
// assert that promise through [TrackedSource.Closes].
//
// [BlockingSource] serves a prefix and then blocks until closed, which
// is how cancellation tests hold a decoder mid-read.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls.
//
// [CountingSource] is a reopenable payload that records every stream it
// hands out, so tests can check how often a payload was opened and
// whether a stream was read at all.
//
// [Signer] returns a signer with a fresh key for any signature type;
// the RSA key is generated once per test binary.
//
// [RandomBytes] builds random payloads.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
