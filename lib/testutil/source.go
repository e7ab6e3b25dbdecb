// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// TrackedSource is an in-memory stream that counts how many times it
// was closed.
type TrackedSource struct {
	reader     *bytes.Reader
	closes     atomic.Int32
	touched    atomic.Bool
	readsAfter atomic.Int32
}

// NewTrackedSource returns a TrackedSource serving data.
func NewTrackedSource(data []byte) *TrackedSource {
	return &TrackedSource{reader: bytes.NewReader(data)}
}

// Read implements io.Reader.
func (s *TrackedSource) Read(p []byte) (int, error) {
	if s.closes.Load() > 0 {
		s.readsAfter.Add(1)
		return 0, errors.New("read from closed source")
	}
	s.touched.Store(true)
	return s.reader.Read(p)
}

// Close implements io.Closer.
func (s *TrackedSource) Close() error {
	s.closes.Add(1)
	return nil
}

// Closes returns the number of Close calls observed.
func (s *TrackedSource) Closes() int {
	return int(s.closes.Load())
}

// Touched reports whether any Read happened.
func (s *TrackedSource) Touched() bool {
	return s.touched.Load()
}

// ReadsAfterClose returns the number of reads attempted after Close.
func (s *TrackedSource) ReadsAfterClose() int {
	return int(s.readsAfter.Load())
}

// BlockingSource serves prefix and then blocks every further Read
// until Close is called, at which point the blocked Read returns
// io.ErrClosedPipe.
type BlockingSource struct {
	prefix  *bytes.Reader
	mu      sync.Mutex
	closed  chan struct{}
	blocked chan struct{}
	closes  atomic.Int32
	once    sync.Once
}

// NewBlockingSource returns a BlockingSource serving prefix first.
func NewBlockingSource(prefix []byte) *BlockingSource {
	return &BlockingSource{
		prefix:  bytes.NewReader(prefix),
		closed:  make(chan struct{}),
		blocked: make(chan struct{}),
	}
}

// Read implements io.Reader.
func (s *BlockingSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	if s.prefix.Len() > 0 {
		defer s.mu.Unlock()
		return s.prefix.Read(p)
	}
	s.mu.Unlock()

	s.once.Do(func() { close(s.blocked) })
	<-s.closed
	return 0, io.ErrClosedPipe
}

// Close implements io.Closer. Only the first call unblocks readers;
// every call is counted.
func (s *BlockingSource) Close() error {
	if s.closes.Add(1) == 1 {
		close(s.closed)
	}
	return nil
}

// Blocked is closed once a Read has exhausted the prefix and blocked.
func (s *BlockingSource) Blocked() <-chan struct{} {
	return s.blocked
}

// Closes returns the number of Close calls observed.
func (s *BlockingSource) Closes() int {
	return int(s.closes.Load())
}

// CountingSource is a reopenable payload that hands out a fresh
// TrackedSource on every Open and keeps them for inspection.
type CountingSource struct {
	data    []byte
	mu      sync.Mutex
	streams []*TrackedSource
}

// NewCountingSource returns a CountingSource over data.
func NewCountingSource(data []byte) *CountingSource {
	return &CountingSource{data: data}
}

func (s *CountingSource) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := NewTrackedSource(s.data)
	s.streams = append(s.streams, stream)
	return stream, nil
}

func (s *CountingSource) Size() (int64, error) {
	return int64(len(s.data)), nil
}

// Opens returns the number of Open calls so far.
func (s *CountingSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Streams returns the streams handed out so far.
func (s *CountingSource) Streams() []*TrackedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*TrackedSource(nil), s.streams...)
}
