// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"io"

	"github.com/bureau-foundation/databundle/lib/bytestream"
)

// Concat returns a stream over the bytes of parts in order. Parts are
// opened lazily: part i+1 is opened only after part i reached EOF and
// was closed, so at most one part is open at any time. Closing the
// result closes whichever part is open, exactly once. Reads check ctx.
func Concat(ctx context.Context, parts ...Source) io.ReadCloser {
	return &concatReader{ctx: ctx, parts: parts}
}

type concatReader struct {
	ctx     context.Context
	parts   []Source
	next    int
	current io.ReadCloser
	closed  bool
}

func (r *concatReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	for {
		if err := r.ctx.Err(); err != nil {
			return 0, err
		}
		if r.current == nil {
			if r.next == len(r.parts) {
				return 0, io.EOF
			}
			stream, err := r.parts[r.next].Open()
			if err != nil {
				return 0, err
			}
			r.current = bytestream.CloseOnce(stream)
			r.next++
		}
		n, err := r.current.Read(p)
		if err == io.EOF {
			closeErr := r.current.Close()
			r.current = nil
			if closeErr != nil {
				return n, closeErr
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Close releases the open part, if any.
func (r *concatReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}
