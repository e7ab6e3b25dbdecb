// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/databundle/lib/bytestream"
	"github.com/bureau-foundation/databundle/lib/dataitem"
	"github.com/bureau-foundation/databundle/lib/source"
)

// ErrEntryMismatch is returned when the item stored at an entry's
// offset carries a different identifier than the entry.
var ErrEntryMismatch = errors.New("item identifier does not match bundle entry")

// Reader opens items inside a stored bundle by identifier.
type Reader struct {
	bundle source.Source
	header *Header
	index  *Index
}

// Open decodes the header of the bundle in src.
func Open(ctx context.Context, src source.Source) (*Reader, error) {
	stream, err := src.Open()
	if err != nil {
		return nil, err
	}
	var header *Header
	err = bytestream.Use(ctx, stream, func(reader *bytestream.Reader) error {
		var decodeErr error
		header, decodeErr = decode(reader)
		return decodeErr
	})
	if err != nil {
		return nil, fmt.Errorf("decoding bundle header: %w", err)
	}
	index, err := header.Index()
	if err != nil {
		return nil, err
	}
	return &Reader{bundle: src, header: header, index: index}, nil
}

// OpenWithIndex uses a previously built index instead of decoding the
// header. The header bytes are still read once and checked against the
// index checksum.
func OpenWithIndex(ctx context.Context, src source.Source, index *Index) (*Reader, error) {
	stream, err := source.Section(src, 0, int64(index.headerSize)).Open()
	if err != nil {
		return nil, err
	}
	hasher := blake3.New()
	err = bytestream.Use(ctx, stream, func(reader *bytestream.Reader) error {
		_, copyErr := io.Copy(hasher, reader.Source())
		return copyErr
	})
	if err != nil {
		return nil, fmt.Errorf("reading bundle header: %w", err)
	}
	var checksum [32]byte
	hasher.Sum(checksum[:0])
	if checksum != index.headerChecksum {
		return nil, ErrIndexMismatch
	}
	return &Reader{bundle: src, index: index}, nil
}

// Index returns the reader's offset index.
func (r *Reader) Index() *Index {
	return r.index
}

// Header returns the decoded header, or nil when the reader was opened
// from an index.
func (r *Reader) Header() *Header {
	return r.header
}

// Raw returns a source over the serialized bytes of the item named id.
func (r *Reader) Raw(id string) (source.Source, error) {
	entry, err := r.index.Lookup(id)
	if err != nil {
		return nil, err
	}
	return source.Section(r.bundle, int64(entry.Offset), int64(entry.Length)), nil
}

// Item decodes the item named id. The item's own identifier must equal
// id.
func (r *Reader) Item(ctx context.Context, id string) (*dataitem.Item, error) {
	raw, err := r.Raw(id)
	if err != nil {
		return nil, err
	}
	item, err := dataitem.Load(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	if item.Header.ID() != id {
		return nil, fmt.Errorf("%w: entry %s holds item %s", ErrEntryMismatch, id, item.Header.ID())
	}
	return item, nil
}

// Verify checks the signature of the item named id. An item whose
// identifier differs from its entry is reported invalid.
func (r *Reader) Verify(ctx context.Context, id string) (bool, error) {
	item, err := r.Item(ctx, id)
	if errors.Is(err, ErrEntryMismatch) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return item.Verify(ctx)
}

// Result is the outcome of verifying one item.
type Result struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// VerifyAll verifies every item in physical order. Per-item failures,
// including decode errors, are recorded in the results; only context
// cancellation stops the walk. A nil logger discards.
func (r *Reader) VerifyAll(ctx context.Context, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]Result, 0, r.index.Len())
	for _, entry := range r.index.entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		id := entry.ID.String()
		valid, err := r.Verify(ctx, id)
		if err != nil && ctx.Err() != nil {
			return results, ctx.Err()
		}
		result := Result{ID: id, Valid: valid && err == nil}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
		logger.Debug("verified item", "id", id, "valid", result.Valid, "error", result.Error)
	}
	invalid := 0
	for _, result := range results {
		if !result.Valid {
			invalid++
		}
	}
	logger.Info("verified bundle", "items", len(results), "invalid", invalid)
	return results, nil
}
