// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytestream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/bureau-foundation/databundle/lib/testutil"
)

func TestReadFullExact(t *testing.T) {
	reader := NewReader(context.Background(), bytes.NewReader([]byte{1, 2, 3, 4, 5}))

	first := make([]byte, 3)
	if err := reader.ReadFull(first); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if !bytes.Equal(first, []byte{1, 2, 3}) {
		t.Errorf("first = %v, want [1 2 3]", first)
	}

	second := make([]byte, 3)
	err := reader.ReadFull(second)
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("ReadFull past end: error = %v, want ErrShortRead", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short read should wrap io.ErrUnexpectedEOF, got %v", err)
	}
	if reader.Consumed() != 5 {
		t.Errorf("Consumed = %d, want 5", reader.Consumed())
	}
}

func TestReadFullOnEmptySource(t *testing.T) {
	reader := NewReader(context.Background(), bytes.NewReader(nil))
	err := reader.ReadFull(make([]byte, 1))
	if !errors.Is(err, ErrShortRead) || !errors.Is(err, io.EOF) {
		t.Errorf("error = %v, want ErrShortRead wrapping io.EOF", err)
	}
}

func TestReadFullSlowSource(t *testing.T) {
	// iotest-style one-byte reads must still assemble a full field.
	reader := NewReader(context.Background(), &oneByteReader{data: []byte("abcdefgh")})
	field, err := reader.Next(8)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(field) != "abcdefgh" {
		t.Errorf("field = %q, want abcdefgh", field)
	}
}

func TestReadOptional(t *testing.T) {
	value := bytes.Repeat([]byte{7}, 32)
	var stream []byte
	stream = append(stream, 0)
	stream = append(stream, 1)
	stream = append(stream, value...)
	stream = append(stream, 9)

	reader := NewReader(context.Background(), bytes.NewReader(stream))

	missing, err := reader.ReadOptional(32)
	if err != nil {
		t.Fatalf("ReadOptional (absent) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("absent field = %v, want nil", missing)
	}
	if reader.Consumed() != 1 {
		t.Errorf("absent field consumed %d bytes, want 1", reader.Consumed())
	}

	present, err := reader.ReadOptional(32)
	if err != nil {
		t.Fatalf("ReadOptional (present) failed: %v", err)
	}
	if !bytes.Equal(present, value) {
		t.Errorf("present field = %v, want %v", present, value)
	}

	if _, err := reader.ReadOptional(32); !errors.Is(err, ErrInvalidPresence) {
		t.Errorf("presence byte 9: error = %v, want ErrInvalidPresence", err)
	}
}

func TestNextRejectsOversizedField(t *testing.T) {
	reader := NewReader(context.Background(), bytes.NewReader(nil))
	if _, err := reader.Next(MaxFieldSize + 1); !errors.Is(err, ErrFieldTooLarge) {
		t.Errorf("error = %v, want ErrFieldTooLarge", err)
	}
	if _, err := reader.Next(-1); !errors.Is(err, ErrFieldTooLarge) {
		t.Errorf("error = %v, want ErrFieldTooLarge", err)
	}
}

func TestIntegerFields(t *testing.T) {
	var buffer bytes.Buffer
	writer := NewWriter(&buffer)
	if err := writer.WriteUint(2, 2); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}
	if err := writer.WriteUint(1234567, 8); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}
	big96 := new(big.Int).Lsh(big.NewInt(1), 96)
	if err := writer.WriteBigUint(big96, 32); err != nil {
		t.Fatalf("WriteBigUint failed: %v", err)
	}
	if writer.Written() != 42 {
		t.Fatalf("Written = %d, want 42", writer.Written())
	}

	reader := NewReader(context.Background(), &buffer)
	small, err := reader.ReadUint(2)
	if err != nil || small != 2 {
		t.Errorf("ReadUint(2) = %d, %v; want 2", small, err)
	}
	medium, err := reader.ReadUint(8)
	if err != nil || medium != 1234567 {
		t.Errorf("ReadUint(8) = %d, %v; want 1234567", medium, err)
	}
	large, err := reader.ReadBigUint(32)
	if err != nil || large.Cmp(big96) != 0 {
		t.Errorf("ReadBigUint(32) = %v, %v; want 2^96", large, err)
	}
}

func TestWriteOptional(t *testing.T) {
	var buffer bytes.Buffer
	writer := NewWriter(&buffer)
	if err := writer.WriteOptional(nil, 32); err != nil {
		t.Fatalf("WriteOptional(nil) failed: %v", err)
	}
	if !bytes.Equal(buffer.Bytes(), []byte{0}) {
		t.Errorf("absent field = %v, want [0]", buffer.Bytes())
	}

	buffer.Reset()
	target := bytes.Repeat([]byte{0xAB}, 32)
	if err := writer.WriteOptional(target, 32); err != nil {
		t.Fatalf("WriteOptional failed: %v", err)
	}
	if buffer.Len() != 33 || buffer.Bytes()[0] != 1 || !bytes.Equal(buffer.Bytes()[1:], target) {
		t.Errorf("present field = %v", buffer.Bytes())
	}

	if err := writer.WriteOptional([]byte{1, 2}, 32); err == nil {
		t.Error("WriteOptional with wrong width should fail")
	}
}

func TestWriterShortWrite(t *testing.T) {
	writer := NewWriter(&shortWriter{limit: 3})
	err := writer.WriteFull([]byte{1, 2, 3, 4})
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("error = %v, want io.ErrShortWrite", err)
	}
}

func TestUseClosesOnceOnSuccess(t *testing.T) {
	source := testutil.NewTrackedSource([]byte{1, 2, 3})
	err := Use(context.Background(), source, func(reader *Reader) error {
		_, err := reader.Next(3)
		return err
	})
	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if source.Closes() != 1 {
		t.Errorf("Closes = %d, want 1", source.Closes())
	}
}

func TestUseClosesOnceOnFailure(t *testing.T) {
	source := testutil.NewTrackedSource([]byte{1})
	err := Use(context.Background(), source, func(reader *Reader) error {
		_, err := reader.Next(3)
		return err
	})
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("error = %v, want ErrShortRead", err)
	}
	if source.Closes() != 1 {
		t.Errorf("Closes = %d, want 1", source.Closes())
	}
}

func TestUseCancellationReleasesOnce(t *testing.T) {
	source := testutil.NewBlockingSource([]byte{1, 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Use(ctx, source, func(reader *Reader) error {
			_, err := reader.Next(10)
			return err
		})
	}()

	testutil.RequireClosed(t, source.Blocked(), 5*time.Second, "waiting for blocked read")
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Use to return")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if source.Closes() != 1 {
		t.Errorf("Closes = %d, want 1", source.Closes())
	}
}

func TestUseWithCancelledContext(t *testing.T) {
	source := testutil.NewTrackedSource([]byte{1, 2, 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Use(ctx, source, func(reader *Reader) error {
		_, err := reader.Next(1)
		return err
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if source.Touched() {
		t.Error("source was read after cancellation")
	}
	if source.Closes() != 1 {
		t.Errorf("Closes = %d, want 1", source.Closes())
	}
}

func TestCloseOnceIsIdempotent(t *testing.T) {
	source := testutil.NewTrackedSource(nil)
	closer := CloseOnce(source)
	closer.Close()
	closer.Close()
	if CloseOnce(closer) != closer {
		t.Error("CloseOnce should not double-wrap")
	}
	if source.Closes() != 1 {
		t.Errorf("Closes = %d, want 1", source.Closes())
	}
}

func TestOptionalField(t *testing.T) {
	if got := OptionalField(nil); len(got) != 1 || !bytes.Equal(got[0], []byte{0}) {
		t.Errorf("OptionalField(nil) = %v", got)
	}
	value := []byte{4, 5}
	got := OptionalField(value)
	if len(got) != 2 || got[0][0] != 1 || &got[1][0] != &value[0] {
		t.Errorf("OptionalField(value) = %v, want presence byte then the same slice", got)
	}
}

type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

type shortWriter struct {
	limit int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		return w.limit, nil
	}
	return len(p), nil
}
