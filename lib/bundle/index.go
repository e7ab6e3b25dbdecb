// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/databundle/lib/codec"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/numeric"
)

// indexVersion is the sidecar format version.
const indexVersion = 1

var (
	// ErrInvalidIndex is returned for a sidecar whose contents are not
	// self-consistent.
	ErrInvalidIndex = errors.New("invalid bundle index")

	// ErrIndexMismatch is returned when a sidecar was built from a
	// different bundle header than the one it is used with.
	ErrIndexMismatch = errors.New("bundle index does not match bundle header")
)

// IndexEntry locates one item within a bundle.
type IndexEntry struct {
	_      struct{}  `cbor:",toarray"`
	ID     itemid.ID `json:"id"`
	Offset uint64    `json:"offset"`
	Length uint64    `json:"length"`
}

// Index holds the absolute offset of every item, computed once.
type Index struct {
	headerSize     uint64
	headerChecksum [32]byte
	entries        []IndexEntry
	positions      map[itemid.ID]int
}

// indexFile is the CBOR form of an Index.
type indexFile struct {
	Version        int          `cbor:"version"`
	HeaderSize     uint64       `cbor:"header_size"`
	HeaderChecksum []byte       `cbor:"header_blake3"`
	Entries        []IndexEntry `cbor:"entries"`
}

// Index computes the prefix-sum index of h. Offsets must fit in 64
// bits.
func (h *Header) Index() (*Index, error) {
	encoded, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	index := &Index{
		headerSize:     uint64(h.Size()),
		headerChecksum: blake3.Sum256(encoded),
		entries:        make([]IndexEntry, len(h.entries)),
		positions:      h.positions,
	}
	offset := index.headerSize
	for position, current := range h.entries {
		if !current.length.IsUint64() {
			return nil, fmt.Errorf("item %s length %s: %w", current.id, current.length, numeric.ErrOverflow)
		}
		length := current.length.Uint64()
		index.entries[position] = IndexEntry{ID: current.id, Offset: offset, Length: length}
		if length > math.MaxUint64-offset {
			return nil, fmt.Errorf("offset after item %s: %w", current.id, numeric.ErrOverflow)
		}
		offset += length
	}
	return index, nil
}

// Len returns the number of items.
func (x *Index) Len() int { return len(x.entries) }

// HeaderSize returns the size of the bundle header the index describes.
func (x *Index) HeaderSize() uint64 { return x.headerSize }

// HeaderChecksum returns the BLAKE3 digest of the bundle header bytes.
func (x *Index) HeaderChecksum() [32]byte { return x.headerChecksum }

// Entries returns a copy of the entries in physical order.
func (x *Index) Entries() []IndexEntry {
	return append([]IndexEntry(nil), x.entries...)
}

// Lookup returns the entry for id. An absent id returns a
// *NotFoundError.
func (x *Index) Lookup(id string) (IndexEntry, error) {
	parsed, err := itemid.Parse(id)
	if err != nil {
		return IndexEntry{}, &NotFoundError{ID: id}
	}
	position, ok := x.positions[parsed]
	if !ok {
		return IndexEntry{}, &NotFoundError{ID: id}
	}
	return x.entries[position], nil
}

// TotalSize returns the bundle size implied by the index.
func (x *Index) TotalSize() uint64 {
	if len(x.entries) == 0 {
		return x.headerSize
	}
	last := x.entries[len(x.entries)-1]
	return last.Offset + last.Length
}

// EncodeIndex writes index as a CBOR sidecar.
func EncodeIndex(w io.Writer, index *Index) error {
	return codec.NewEncoder(w).Encode(indexFile{
		Version:        indexVersion,
		HeaderSize:     index.headerSize,
		HeaderChecksum: index.headerChecksum[:],
		Entries:        index.entries,
	})
}

// DecodeIndex reads a CBOR sidecar written by EncodeIndex and checks
// that its offsets are consistent prefix sums.
func DecodeIndex(r io.Reader) (*Index, error) {
	var file indexFile
	if err := codec.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	if file.Version != indexVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidIndex, file.Version, indexVersion)
	}
	if len(file.HeaderChecksum) != 32 {
		return nil, fmt.Errorf("%w: checksum is %d bytes, want 32", ErrInvalidIndex, len(file.HeaderChecksum))
	}
	if want := uint64(fieldWidth) + uint64(entryWidth)*uint64(len(file.Entries)); file.HeaderSize != want {
		return nil, fmt.Errorf("%w: header size %d for %d entries, want %d", ErrInvalidIndex, file.HeaderSize, len(file.Entries), want)
	}

	index := &Index{
		headerSize: file.HeaderSize,
		entries:    file.Entries,
		positions:  make(map[itemid.ID]int, len(file.Entries)),
	}
	copy(index.headerChecksum[:], file.HeaderChecksum)

	expected := file.HeaderSize
	for position, current := range file.Entries {
		if current.Offset != expected {
			return nil, fmt.Errorf("%w: entry %d offset %d, want %d", ErrInvalidIndex, position, current.Offset, expected)
		}
		if previous, exists := index.positions[current.ID]; exists {
			return nil, fmt.Errorf("%w: %s at entries %d and %d", ErrDuplicateItem, current.ID, previous, position)
		}
		index.positions[current.ID] = position
		if current.Length > math.MaxUint64-expected {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidIndex, position, numeric.ErrOverflow)
		}
		expected += current.Length
	}
	return index, nil
}
