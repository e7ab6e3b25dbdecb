// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"errors"
	"io"
	"sync"

	"github.com/zeebo/blake3"
)

// ErrSourceChanged is returned at the end of a stream whose bytes
// differ from an earlier complete read of the same Source.
var ErrSourceChanged = errors.New("source changed between reads")

// Stable wraps inner so that every complete read must yield the same
// bytes as the first complete read.
func Stable(inner Source) *StableSource {
	return &StableSource{inner: inner}
}

// StableSource is returned by Stable.
type StableSource struct {
	inner Source

	mu          sync.Mutex
	fingerprint *[32]byte
}

func (s *StableSource) Size() (int64, error) {
	return s.inner.Size()
}

// Fingerprint returns the BLAKE3 digest of the first complete read, or
// false before one has finished.
func (s *StableSource) Fingerprint() ([32]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprint == nil {
		return [32]byte{}, false
	}
	return *s.fingerprint, true
}

func (s *StableSource) Open() (io.ReadCloser, error) {
	stream, err := s.inner.Open()
	if err != nil {
		return nil, err
	}
	return &stableReader{ReadCloser: stream, owner: s, hasher: blake3.New()}, nil
}

// settle records or checks the digest of a complete read.
func (s *StableSource) settle(digest [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprint == nil {
		s.fingerprint = &digest
		return nil
	}
	if *s.fingerprint != digest {
		return ErrSourceChanged
	}
	return nil
}

type stableReader struct {
	io.ReadCloser
	owner  *StableSource
	hasher *blake3.Hasher
	done   bool
	err    error
}

func (r *stableReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	n, err := r.ReadCloser.Read(p)
	r.hasher.Write(p[:n])
	if err == io.EOF {
		var digest [32]byte
		r.hasher.Sum(digest[:0])
		r.done = true
		r.err = io.EOF
		if settleErr := r.owner.settle(digest); settleErr != nil {
			r.err = settleErr
		}
		return n, r.err
	}
	return n, err
}
