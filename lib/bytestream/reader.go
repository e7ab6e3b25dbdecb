// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytestream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/bureau-foundation/databundle/lib/numeric"
)

// MaxFieldSize bounds the length of a single variable-size field read
// with [Reader.Next]. Length prefixes come from untrusted input; the
// bound keeps a corrupt prefix from forcing a huge allocation.
const MaxFieldSize = 16 << 20

var (
	// ErrShortRead is returned when the source ends before a field is
	// complete. The underlying io.EOF or io.ErrUnexpectedEOF is also
	// wrapped.
	ErrShortRead = errors.New("stream ended before field was complete")

	// ErrInvalidPresence is returned when an optional field's presence
	// byte is neither 0 nor 1.
	ErrInvalidPresence = errors.New("invalid presence byte")

	// ErrFieldTooLarge is returned when a field length exceeds
	// MaxFieldSize or is negative.
	ErrFieldTooLarge = errors.New("field length out of range")
)

// Reader reads exact-size fields from an underlying byte source. It
// does not own the source: closing is the caller's job (see [Use]).
type Reader struct {
	ctx      context.Context
	source   io.Reader
	consumed int64
}

// NewReader returns a Reader over source. Every read checks ctx first.
func NewReader(ctx context.Context, source io.Reader) *Reader {
	return &Reader{ctx: ctx, source: source}
}

// Consumed returns the number of bytes read from the source so far.
func (r *Reader) Consumed() int64 {
	return r.consumed
}

// Source returns the underlying reader, positioned immediately after
// the last field read. Decoders hand this to the payload consumer.
func (r *Reader) Source() io.Reader {
	return r.source
}

// ReadFull fills buffer completely or returns an error.
func (r *Reader) ReadFull(buffer []byte) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	n, err := io.ReadFull(r.source, buffer)
	r.consumed += int64(n)
	if err == nil {
		return nil
	}
	if contextErr := r.ctx.Err(); contextErr != nil {
		// A cancelled Use closes the source under a blocked read; the
		// read error is a symptom, the cancellation is the cause.
		return contextErr
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: wanted %d bytes, got %d: %w", ErrShortRead, len(buffer), n, err)
	}
	return err
}

// Next reads and returns the next n bytes.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || n > MaxFieldSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFieldTooLarge, n, MaxFieldSize)
	}
	buffer := make([]byte, n)
	if err := r.ReadFull(buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadOptional reads a presence byte and, when it is 1, the n bytes
// that follow. An absent field returns nil without consuming more.
func (r *Reader) ReadOptional(n int) ([]byte, error) {
	var presence [1]byte
	if err := r.ReadFull(presence[:]); err != nil {
		return nil, err
	}
	switch presence[0] {
	case 0:
		return nil, nil
	case 1:
		return r.Next(n)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPresence, presence[0])
	}
}

// ReadUint reads a width-byte little-endian unsigned integer.
func (r *Reader) ReadUint(width int) (uint64, error) {
	field, err := r.Next(width)
	if err != nil {
		return 0, err
	}
	return numeric.DecodeUint(field)
}

// ReadBigUint reads a width-byte little-endian unsigned integer of
// arbitrary magnitude.
func (r *Reader) ReadBigUint(width int) (*big.Int, error) {
	field, err := r.Next(width)
	if err != nil {
		return nil, err
	}
	return numeric.DecodeBigUint(field), nil
}
