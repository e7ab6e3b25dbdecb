// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bureau-foundation/databundle/lib/dataitem"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/numeric"
)

const (
	fieldWidth = 32
	entryWidth = 2 * fieldWidth
)

var (
	// ErrDuplicateItem is returned when two entries share an
	// identifier.
	ErrDuplicateItem = errors.New("duplicate item identifier in bundle")

	// ErrInvalidLength is returned for a negative entry length or one
	// wider than 32 bytes.
	ErrInvalidLength = errors.New("invalid item length")
)

// Entry is one item's header record.
type Entry struct {
	// ID is the item identifier in its 43-character text form.
	ID string `json:"id"`

	// Length is the serialized item length in bytes.
	Length *big.Int `json:"length"`
}

type entry struct {
	id     itemid.ID
	length *big.Int
}

// Header is an ordered, immutable list of bundle entries.
type Header struct {
	entries []entry
	// positions maps each identifier to its entry index.
	positions map[itemid.ID]int
}

// NewHeader builds a header from entries in physical order.
func NewHeader(entries []Entry) (*Header, error) {
	built := make([]entry, len(entries))
	for index, input := range entries {
		id, err := itemid.Parse(input.ID)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", index, err)
		}
		if input.Length == nil || input.Length.Sign() < 0 {
			return nil, fmt.Errorf("entry %d (%s): %w: %v", index, input.ID, ErrInvalidLength, input.Length)
		}
		if input.Length.BitLen() > 8*fieldWidth {
			return nil, fmt.Errorf("entry %d (%s): %w: %w", index, input.ID, ErrInvalidLength, numeric.ErrOverflow)
		}
		built[index] = entry{id: id, length: new(big.Int).Set(input.Length)}
	}
	return newHeader(built)
}

func newHeader(entries []entry) (*Header, error) {
	positions := make(map[itemid.ID]int, len(entries))
	for index, current := range entries {
		if previous, exists := positions[current.id]; exists {
			return nil, fmt.Errorf("%w: %s at entries %d and %d", ErrDuplicateItem, current.id, previous, index)
		}
		positions[current.id] = index
	}
	return &Header{entries: entries, positions: positions}, nil
}

// HeaderFor builds the header for items in the given order. Every item
// header must pass Validate.
func HeaderFor(items []*dataitem.Item) (*Header, error) {
	entries := make([]entry, len(items))
	for index, item := range items {
		if err := item.Header.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", index, err)
		}
		id, err := itemid.Parse(item.Header.ID())
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", index, err)
		}
		size, err := item.Size()
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", index, id, err)
		}
		entries[index] = entry{id: id, length: big.NewInt(size)}
	}
	return newHeader(entries)
}

// Len returns the number of entries.
func (h *Header) Len() int {
	return len(h.entries)
}

// Size returns the serialized header length: 32 + 64·Len().
func (h *Header) Size() int64 {
	return fieldWidth + entryWidth*int64(len(h.entries))
}

// Entries returns a copy of the entries in physical order.
func (h *Header) Entries() []Entry {
	result := make([]Entry, len(h.entries))
	for index, current := range h.entries {
		result[index] = Entry{ID: current.id.String(), Length: new(big.Int).Set(current.length)}
	}
	return result
}

// Contains reports whether id names an entry.
func (h *Header) Contains(id string) bool {
	parsed, err := itemid.Parse(id)
	if err != nil {
		return false
	}
	_, ok := h.positions[parsed]
	return ok
}

// TotalSize returns the size of the complete bundle: header plus every
// item.
func (h *Header) TotalSize() *big.Int {
	total := big.NewInt(h.Size())
	for _, current := range h.entries {
		total.Add(total, current.length)
	}
	return total
}
