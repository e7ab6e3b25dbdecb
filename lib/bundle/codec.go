// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/bureau-foundation/databundle/lib/bytestream"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/numeric"
)

// preallocateLimit caps the entry slice allocated up front from an
// untrusted count. Larger headers grow as entries are actually read.
const preallocateLimit = 1 << 16

// Decode reads a bundle header from r, consuming exactly Size() bytes.
func Decode(ctx context.Context, r io.Reader) (*Header, error) {
	return decode(bytestream.NewReader(ctx, r))
}

func decode(reader *bytestream.Reader) (*Header, error) {
	rawCount, err := reader.ReadBigUint(fieldWidth)
	if err != nil {
		return nil, fmt.Errorf("reading item count: %w", err)
	}
	if !rawCount.IsInt64() || rawCount.Int64() > math.MaxInt {
		return nil, fmt.Errorf("item count %s: %w", rawCount, numeric.ErrOverflow)
	}
	count := int(rawCount.Int64())

	entries := make([]entry, 0, min(count, preallocateLimit))
	for index := 0; index < count; index++ {
		length, err := reader.ReadBigUint(fieldWidth)
		if err != nil {
			return nil, fmt.Errorf("reading item %d length: %w", index, err)
		}
		var id itemid.ID
		if err := reader.ReadFull(id[:]); err != nil {
			return nil, fmt.Errorf("reading item %d id: %w", index, err)
		}
		entries = append(entries, entry{id: id, length: length})
	}
	return newHeader(entries)
}

// Segments returns the serialized header as byte ranges: the count,
// then a length and an identifier per entry.
func (h *Header) Segments() ([][]byte, error) {
	segments := make([][]byte, 0, 1+2*len(h.entries))
	count, err := numeric.EncodeUint(uint64(len(h.entries)), fieldWidth)
	if err != nil {
		return nil, err
	}
	segments = append(segments, count)
	for index := range h.entries {
		length, err := numeric.EncodeBigUint(h.entries[index].length, fieldWidth)
		if err != nil {
			return nil, fmt.Errorf("encoding item %d length: %w", index, err)
		}
		segments = append(segments, length, h.entries[index].id[:])
	}
	return segments, nil
}

// WriteTo writes the serialized header to w.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	segments, err := h.Segments()
	if err != nil {
		return 0, err
	}
	writer := bytestream.NewWriter(w)
	for _, segment := range segments {
		if err := writer.WriteFull(segment); err != nil {
			return writer.Written(), err
		}
	}
	return writer.Written(), nil
}

// MarshalBinary returns the serialized header.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.Grow(int(h.Size()))
	if _, err := h.WriteTo(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// NewReader returns a stream over the serialized header.
func (h *Header) NewReader() (io.Reader, error) {
	encoded, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(encoded), nil
}

// ByteOffsetOf returns the absolute offset of the item named id within
// the bundle. An absent id returns a *NotFoundError.
func (h *Header) ByteOffsetOf(id string) (*big.Int, error) {
	parsed, err := itemid.Parse(id)
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}
	offset := big.NewInt(h.Size())
	for _, current := range h.entries {
		if current.id == parsed {
			return offset, nil
		}
		offset.Add(offset, current.length)
	}
	return nil, &NotFoundError{ID: id}
}
