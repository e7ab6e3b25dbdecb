// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bytestream provides the exact-size field reader and writer
// that every bundle and data item codec is built on.
//
// A [Reader] never returns a short read: [Reader.ReadFull] either fills
// the caller's buffer completely or fails with [ErrShortRead]. Optional
// fields are a presence byte (0 or 1) followed by a fixed-width value
// when present ([Reader.ReadOptional]). Integer fields go through
// lib/numeric. The reader holds at most one field in memory, so it
// works the same over a 100-byte header and a multi-gigabyte file.
//
// [Use] is the scoped acquisition helper: it hands a Reader over an
// io.ReadCloser to a callback and closes the source exactly once,
// whether the callback returns normally, fails, or the context is
// cancelled while a read is blocked. Cancellation closes the source
// immediately to unblock the read; the deferred close afterwards is a
// no-op.
//
// [Writer] is the mirror image for encoders: every write is complete
// or an error, with the same optional-field and integer helpers.
package bytestream
