// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/databundle/lib/source"
)

// ErrTerminalOutput is returned when binary output would be written to
// a terminal.
var ErrTerminalOutput = errors.New("refusing to write binary output to a terminal; use -o FILE or redirect stdout")

// Output is a destination for binary command output. Nothing is
// visible at the destination path until Commit.
type Output interface {
	io.Writer

	// Path is where the output lands, or "-" for stdout.
	Path() string

	Commit() error

	// Abort discards uncommitted output. It is a no-op after Commit.
	Abort()
}

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CreateOutput opens path for binary output. "-" selects stdout, which
// must not be a terminal and is never compressed. For files, the path
// suffix picks the compression; when the suffix names none and
// fallback is set, fallback's suffix is appended so the file reads
// back correctly.
func CreateOutput(path string, fallback source.Compression) (Output, error) {
	if path == "-" {
		if stdoutIsTerminal() {
			return nil, ErrTerminalOutput
		}
		return stdoutOutput{writer: os.Stdout}, nil
	}

	compression := source.CompressionForPath(path)
	if compression == source.CompressionNone && fallback != source.CompressionNone {
		compression = fallback
		path += fallback.Suffix()
	}
	sink, err := source.Create(path, compression)
	if err != nil {
		return nil, err
	}
	return &fileOutput{Sink: sink, path: path}, nil
}

type fileOutput struct {
	*source.Sink
	path string
}

func (o *fileOutput) Path() string { return o.path }

type stdoutOutput struct {
	writer io.Writer
}

func (o stdoutOutput) Write(p []byte) (int, error) { return o.writer.Write(p) }
func (o stdoutOutput) Path() string                { return "-" }
func (o stdoutOutput) Commit() error               { return nil }
func (o stdoutOutput) Abort()                      {}
