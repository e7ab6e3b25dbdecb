// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytestream

import (
	"fmt"
	"io"
	"math/big"

	"github.com/bureau-foundation/databundle/lib/numeric"
)

var (
	absent  = []byte{0}
	present = []byte{1}
)

// Writer writes exact-size fields to an underlying sink.
type Writer struct {
	sink    io.Writer
	written int64
}

// NewWriter returns a Writer over sink.
func NewWriter(sink io.Writer) *Writer {
	return &Writer{sink: sink}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.written
}

// WriteFull writes all of b or returns an error.
func (w *Writer) WriteFull(b []byte) error {
	n, err := w.sink.Write(b)
	w.written += int64(n)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("wrote %d of %d bytes: %w", n, len(b), io.ErrShortWrite)
	}
	return nil
}

// WriteOptional writes a presence byte followed by value when value is
// non-nil. A present value must be exactly width bytes.
func (w *Writer) WriteOptional(value []byte, width int) error {
	if value == nil {
		return w.WriteFull(absent)
	}
	if len(value) != width {
		return fmt.Errorf("optional field is %d bytes, want %d", len(value), width)
	}
	if err := w.WriteFull(present); err != nil {
		return err
	}
	return w.WriteFull(value)
}

// WriteUint writes v as a width-byte little-endian integer.
func (w *Writer) WriteUint(v uint64, width int) error {
	field, err := numeric.EncodeUint(v, width)
	if err != nil {
		return err
	}
	return w.WriteFull(field)
}

// WriteBigUint writes v as a width-byte little-endian integer.
func (w *Writer) WriteBigUint(v *big.Int, width int) error {
	field, err := numeric.EncodeBigUint(v, width)
	if err != nil {
		return err
	}
	return w.WriteFull(field)
}

// OptionalField returns the serialized form of an optional field as
// byte ranges: the presence byte, then the value when present. The
// value slice is returned as-is, not copied.
func OptionalField(value []byte) [][]byte {
	if value == nil {
		return [][]byte{absent}
	}
	return [][]byte{present, value}
}
