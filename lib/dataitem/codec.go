// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataitem

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/databundle/lib/bytestream"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/numeric"
	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/tags"
)

const (
	typeWidth  = 2
	countWidth = 8
)

// Decode reads one header from r, consuming exactly Size() bytes and
// leaving r positioned at the first payload byte.
func Decode(ctx context.Context, r io.Reader) (*Header, error) {
	return decode(bytestream.NewReader(ctx, r))
}

func decode(reader *bytestream.Reader) (*Header, error) {
	rawType, err := reader.ReadUint(typeWidth)
	if err != nil {
		return nil, fmt.Errorf("reading signature type: %w", err)
	}
	signatureType := signature.Type(rawType)
	params, err := signature.Lookup(signatureType)
	if err != nil {
		return nil, err
	}

	header := &Header{signatureType: signatureType}
	if header.signature, err = reader.Next(params.SignatureLength); err != nil {
		return nil, fmt.Errorf("reading %s signature: %w", params.Name, err)
	}
	if header.owner, err = reader.Next(params.OwnerLength); err != nil {
		return nil, fmt.Errorf("reading %s owner: %w", params.Name, err)
	}
	if header.target, err = reader.ReadOptional(ReferenceSize); err != nil {
		return nil, fmt.Errorf("reading target: %w", err)
	}
	if header.anchor, err = reader.ReadOptional(ReferenceSize); err != nil {
		return nil, fmt.Errorf("reading anchor: %w", err)
	}

	tagCount, err := reader.ReadUint(countWidth)
	if err != nil {
		return nil, fmt.Errorf("reading tag count: %w", err)
	}
	tagLength, err := reader.ReadUint(countWidth)
	if err != nil {
		return nil, fmt.Errorf("reading tag bytes length: %w", err)
	}
	if tagLength > bytestream.MaxFieldSize {
		return nil, fmt.Errorf("tag section: %w: %d bytes (limit %d)", bytestream.ErrFieldTooLarge, tagLength, bytestream.MaxFieldSize)
	}
	tagBytes, err := reader.Next(int(tagLength))
	if err != nil {
		return nil, fmt.Errorf("reading tag bytes: %w", err)
	}
	header.tags, err = tags.Decode(tagBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTags, err)
	}
	if uint64(len(header.tags)) != tagCount {
		return nil, fmt.Errorf("%w: count field says %d, section holds %d", ErrMalformedTags, tagCount, len(header.tags))
	}
	// Signatures cover the single-block encoding, so any other block
	// layout would not round-trip.
	canonical, err := tags.Encode(header.tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTags, err)
	}
	if !bytes.Equal(canonical, tagBytes) {
		return nil, fmt.Errorf("%w: tag section is not a single block", ErrMalformedTags)
	}
	header.encodedTags = tagBytes
	header.id = itemid.FromSignature(header.signature).String()
	return header, nil
}

// Size returns the serialized length of the header in bytes.
func (h *Header) Size() int64 {
	size := int64(typeWidth + len(h.signature) + len(h.owner) + 2*countWidth + len(h.tagBytes()))
	for _, reference := range [][]byte{h.target, h.anchor} {
		size++
		if reference != nil {
			size += ReferenceSize
		}
	}
	return size
}

// Segments returns the serialized header as byte ranges in wire order.
// Field slices are shared with the header, not copied; callers must
// not modify them.
func (h *Header) Segments() ([][]byte, error) {
	if !h.Signed() {
		return nil, ErrUnsigned
	}
	if err := h.checkLengths(); err != nil {
		return nil, err
	}
	typeBytes, err := numeric.EncodeUint(uint64(h.signatureType), typeWidth)
	if err != nil {
		return nil, err
	}
	tagBytes := h.tagBytes()
	tagCount, err := numeric.EncodeUint(uint64(len(h.tags)), countWidth)
	if err != nil {
		return nil, err
	}
	tagLength, err := numeric.EncodeUint(uint64(len(tagBytes)), countWidth)
	if err != nil {
		return nil, err
	}

	segments := make([][]byte, 0, 10)
	segments = append(segments, typeBytes, h.signature, h.owner)
	segments = append(segments, bytestream.OptionalField(h.target)...)
	segments = append(segments, bytestream.OptionalField(h.anchor)...)
	segments = append(segments, tagCount, tagLength, tagBytes)
	return segments, nil
}

// NewReader returns a stream over the serialized header.
func (h *Header) NewReader() (io.Reader, error) {
	segments, err := h.Segments()
	if err != nil {
		return nil, err
	}
	readers := make([]io.Reader, len(segments))
	for index, segment := range segments {
		readers[index] = bytes.NewReader(segment)
	}
	return io.MultiReader(readers...), nil
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

// UnmarshalBinary decodes a complete header from data. Trailing bytes
// are an error.
func (h *Header) UnmarshalBinary(data []byte) error {
	reader := bytestream.NewReader(context.Background(), bytes.NewReader(data))
	decoded, err := decode(reader)
	if err != nil {
		return err
	}
	if consumed := reader.Consumed(); consumed != int64(len(data)) {
		return fmt.Errorf("%d trailing bytes after header", int64(len(data))-consumed)
	}
	*h = *decoded
	return nil
}
