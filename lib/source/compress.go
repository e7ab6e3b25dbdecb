// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names a stream compression applied to files.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Suffix returns the file suffix for c, including the dot.
func (c Compression) Suffix() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression parses "none", "zstd", or "lz4". Empty means none.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// CompressionForPath infers compression from the file suffix.
func CompressionForPath(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return CompressionZstd
	case strings.HasSuffix(path, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// compressedSource decompresses a file on every Open. The
// decompressed size is learned by draining one stream and cached.
type compressedSource struct {
	path        string
	compression Compression

	sizeOnce sync.Once
	size     int64
	sizeErr  error
}

func (s *compressedSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	switch s.compression {
	case CompressionZstd:
		decoder, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", s.path, err)
		}
		return &decompressor{Reader: decoder, release: decoder.Close, file: file}, nil
	case CompressionLZ4:
		return &decompressor{Reader: lz4.NewReader(file), file: file}, nil
	default:
		file.Close()
		return nil, fmt.Errorf("unsupported compression %s", s.compression)
	}
}

func (s *compressedSource) Size() (int64, error) {
	s.sizeOnce.Do(func() {
		stream, err := s.Open()
		if err != nil {
			s.sizeErr = err
			return
		}
		defer stream.Close()
		s.size, s.sizeErr = io.Copy(io.Discard, stream)
		if s.sizeErr != nil {
			s.sizeErr = fmt.Errorf("measuring %s: %w", s.path, s.sizeErr)
		}
	})
	return s.size, s.sizeErr
}

type decompressor struct {
	io.Reader
	release func()
	file    *os.File
}

func (d *decompressor) Close() error {
	if d.release != nil {
		d.release()
	}
	return d.file.Close()
}

// compressor wraps w with the encoder for c. Closing the result flushes
// the encoder but does not close w.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}
