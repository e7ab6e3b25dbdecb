// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyfile

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer holds key material in anonymous mmap memory that is locked
// into RAM, excluded from core dumps, and zeroed on Close. Access after
// Close panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewBuffer copies source into a protected region and zeroes source.
func NewBuffer(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("keyfile: empty key material")
	}
	data, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("keyfile: mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("keyfile: mlock: %w", err)
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("keyfile: madvise(MADV_DONTDUMP): %w", err)
	}
	copy(data, source)
	zero(source)
	return &Buffer{data: data}, nil
}

// Bytes returns the protected bytes. The slice aliases the mmap region
// and must not outlive the Buffer.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("keyfile: read from closed buffer")
	}
	return b.data
}

// Close zeroes, unlocks, and unmaps the region. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	zero(b.data)
	var firstError error
	if err := unix.Munlock(b.data); err != nil {
		firstError = fmt.Errorf("keyfile: munlock: %w", err)
	}
	if err := unix.Munmap(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("keyfile: munmap: %w", err)
	}
	b.data = nil
	return firstError
}

func zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
