// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Source opens independent streams over the same bytes.
type Source interface {
	// Open returns a new stream positioned at the first byte. The
	// caller closes it.
	Open() (io.ReadCloser, error)

	// Size returns the number of bytes a complete stream yields.
	Size() (int64, error)
}

type bytesSource []byte

// Bytes returns a Source over data. The slice is not copied.
func Bytes(data []byte) Source {
	return bytesSource(data)
}

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

func (s bytesSource) Size() (int64, error) {
	return int64(len(s)), nil
}

type fileSource string

// File returns a Source over the uncompressed file at path.
func File(path string) Source {
	return fileSource(path)
}

func (s fileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(string(s))
	if err != nil {
		return nil, err
	}
	// Advice only; a filesystem that rejects it still reads correctly.
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	return file, nil
}

func (s fileSource) Size() (int64, error) {
	info, err := os.Stat(string(s))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Path returns a Source for path, decompressing according to its
// suffix.
func Path(path string) Source {
	compression := CompressionForPath(path)
	if compression == CompressionNone {
		return File(path)
	}
	return &compressedSource{path: path, compression: compression}
}
