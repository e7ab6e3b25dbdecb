// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink writes a file atomically: bytes go to a temporary file in the
// destination directory, and Commit renames it into place.
type Sink struct {
	path       string
	file       *os.File
	writer     io.Writer
	compressor io.WriteCloser
	written    int64
	finished   bool
}

// Create opens a sink for path. Output is compressed with compression;
// use CompressionForPath to follow the destination suffix.
func Create(path string, compression Compression) (*Sink, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	sink := &Sink{path: path, file: file, writer: file}
	if compression != CompressionNone {
		sink.compressor, err = compressor(file, compression)
		if err != nil {
			file.Close()
			os.Remove(file.Name())
			return nil, err
		}
		sink.writer = sink.compressor
	}
	return sink, nil
}

// Write writes uncompressed bytes.
func (s *Sink) Write(p []byte) (int, error) {
	if s.finished {
		return 0, errors.New("write to finished sink")
	}
	n, err := s.writer.Write(p)
	s.written += int64(n)
	return n, err
}

// Written returns the uncompressed byte count so far.
func (s *Sink) Written() int64 {
	return s.written
}

// Commit flushes, syncs, and renames the file into place.
func (s *Sink) Commit() error {
	if s.finished {
		return errors.New("sink already finished")
	}
	s.finished = true
	if s.compressor != nil {
		if err := s.compressor.Close(); err != nil {
			s.discard()
			return fmt.Errorf("flushing compressor for %s: %w", s.path, err)
		}
	}
	if err := s.file.Sync(); err != nil {
		s.discard()
		return fmt.Errorf("syncing %s: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	if err := os.Rename(s.file.Name(), s.path); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("renaming into %s: %w", s.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (s *Sink) Abort() {
	if s.finished {
		return
	}
	s.finished = true
	s.discard()
}

func (s *Sink) discard() {
	s.file.Close()
	os.Remove(s.file.Name())
}
