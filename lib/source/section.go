// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"fmt"
	"io"
)

// Section returns a Source over length bytes of inner starting at
// offset. A negative length runs to the end of inner. Streams that can
// seek skip directly to offset; others discard the prefix.
func Section(inner Source, offset, length int64) Source {
	return &section{inner: inner, offset: offset, length: length}
}

type section struct {
	inner  Source
	offset int64
	length int64
}

func (s *section) Open() (io.ReadCloser, error) {
	stream, err := s.inner.Open()
	if err != nil {
		return nil, err
	}
	if err := skip(stream, s.offset); err != nil {
		stream.Close()
		return nil, err
	}
	if s.length < 0 {
		return stream, nil
	}
	return &exactReader{ReadCloser: stream, remaining: s.length}, nil
}

func (s *section) Size() (int64, error) {
	if s.length >= 0 {
		return s.length, nil
	}
	total, err := s.inner.Size()
	if err != nil {
		return 0, err
	}
	if total < s.offset {
		return 0, fmt.Errorf("section offset %d beyond source size %d", s.offset, total)
	}
	return total - s.offset, nil
}

func skip(stream io.Reader, offset int64) error {
	if offset == 0 {
		return nil
	}
	if seeker, ok := stream.(io.Seeker); ok {
		if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("seeking to offset %d: %w", offset, err)
		}
		return nil
	}
	skipped, err := io.CopyN(io.Discard, stream, offset)
	if err != nil {
		return fmt.Errorf("skipping to offset %d (reached %d): %w", offset, skipped, err)
	}
	return nil
}

// exactReader yields exactly remaining bytes, failing with
// io.ErrUnexpectedEOF if the stream ends first.
type exactReader struct {
	io.ReadCloser
	remaining int64
}

func (r *exactReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.ReadCloser.Read(p)
	r.remaining -= int64(n)
	if err == io.EOF {
		if r.remaining > 0 {
			return n, io.ErrUnexpectedEOF
		}
		return n, io.EOF
	}
	return n, err
}
