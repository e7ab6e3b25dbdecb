// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataitem

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/databundle/lib/bytestream"
	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/source"
)

// Item is a signed header and its payload.
type Item struct {
	Header  *Header
	Payload source.Source
}

// Size returns the serialized item length: header then payload.
func (i *Item) Size() (int64, error) {
	payloadSize, err := i.Payload.Size()
	if err != nil {
		return 0, fmt.Errorf("sizing payload: %w", err)
	}
	return i.Header.Size() + payloadSize, nil
}

// Open returns a stream over the serialized item. The payload is
// opened only after the header stream has been read to the end and
// closed.
func (i *Item) Open(ctx context.Context) (io.ReadCloser, error) {
	if !i.Header.Signed() {
		return nil, ErrUnsigned
	}
	if err := i.Header.checkLengths(); err != nil {
		return nil, err
	}
	return source.Concat(ctx, headerSource{i.Header}, i.Payload), nil
}

// Verify checks the item's signature against a fresh payload stream.
func (i *Item) Verify(ctx context.Context) (bool, error) {
	payload, err := i.Payload.Open()
	if err != nil {
		return false, fmt.Errorf("opening payload: %w", err)
	}
	defer payload.Close()
	return i.Header.Verify(ctx, payload)
}

// headerSource adapts a header to source.Source.
type headerSource struct {
	header *Header
}

func (s headerSource) Open() (io.ReadCloser, error) {
	reader, err := s.header.NewReader()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(reader), nil
}

func (s headerSource) Size() (int64, error) {
	return s.header.Size(), nil
}

// Sign builds an item by signing header over payload. The payload is
// read once to hash it; wrap it with source.Stable so that a later
// write fails if the bytes change in between.
func Sign(ctx context.Context, header *Header, signer signature.Signer, payload source.Source) (*Item, error) {
	stream, err := payload.Open()
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	err = bytestream.Use(ctx, stream, func(reader *bytestream.Reader) error {
		return header.Sign(ctx, signer, reader.Source())
	})
	if err != nil {
		return nil, err
	}
	return &Item{Header: header, Payload: payload}, nil
}

// Load decodes the item stored in src: a header followed by the
// payload running to the end of src.
func Load(ctx context.Context, src source.Source) (*Item, error) {
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
		return nil, fmt.Errorf("decoding item header: %w", err)
	}
	return &Item{Header: header, Payload: source.Section(src, header.Size(), -1)}, nil
}

// LoadFile decodes the item file at path, decompressing by suffix.
func LoadFile(ctx context.Context, path string) (*Item, error) {
	item, err := Load(ctx, source.Path(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return item, nil
}
