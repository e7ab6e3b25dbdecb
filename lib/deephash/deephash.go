// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deephash

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strconv"
)

// Size is the byte length of a deep hash digest.
const Size = sha512.Size384

// Digest is a deep hash result.
type Digest [Size]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

type chunkKind uint8

const (
	kindBlob chunkKind = iota
	kindStream
	kindList
)

// Chunk is one element of a deep hash input. Build chunks with Blob,
// Stream, or List; the zero Chunk is an empty blob.
type Chunk struct {
	kind     chunkKind
	blob     []byte
	stream   io.Reader
	children []Chunk
}

// Blob returns a chunk over in-memory bytes. The slice is not copied
// and must not be modified until hashing completes.
func Blob(data []byte) Chunk {
	return Chunk{kind: kindBlob, blob: data}
}

// Text returns a blob chunk over the UTF-8 bytes of s.
func Text(s string) Chunk {
	return Blob([]byte(s))
}

// Stream returns a chunk that drains r when hashed. The stream is read
// to io.EOF and is not closed.
func Stream(r io.Reader) Chunk {
	return Chunk{kind: kindStream, stream: r}
}

// List returns a nested list chunk.
func List(children ...Chunk) Chunk {
	return Chunk{kind: kindList, children: children}
}

// Sum computes the deep hash of chunks taken as a list. Stream chunks
// are drained in order; a read error or a cancelled ctx aborts the
// computation and is returned unchanged (wrapped with the chunk index).
func Sum(ctx context.Context, chunks ...Chunk) (Digest, error) {
	hasher := &hasher{ctx: ctx, sha: sha512.New384()}
	return hasher.list(chunks)
}

type hasher struct {
	ctx context.Context
	// sha is reused for every fixed-input digest. Streams get their own
	// instance because they are hashed incrementally.
	sha hash.Hash
}

func (h *hasher) digest(parts ...[]byte) Digest {
	h.sha.Reset()
	for _, part := range parts {
		h.sha.Write(part)
	}
	var result Digest
	h.sha.Sum(result[:0])
	return result
}

func (h *hasher) tag(kind string, length int64) Digest {
	return h.digest([]byte(kind), strconv.AppendInt(nil, length, 10))
}

func (h *hasher) list(chunks []Chunk) (Digest, error) {
	accumulator := h.tag("list", int64(len(chunks)))
	for index, chunk := range chunks {
		if err := h.ctx.Err(); err != nil {
			return Digest{}, err
		}
		chunkDigest, err := h.chunk(chunk)
		if err != nil {
			return Digest{}, fmt.Errorf("hashing chunk %d: %w", index, err)
		}
		accumulator = h.digest(accumulator[:], chunkDigest[:])
	}
	return accumulator, nil
}

func (h *hasher) chunk(chunk Chunk) (Digest, error) {
	switch chunk.kind {
	case kindBlob:
		tag := h.tag("blob", int64(len(chunk.blob)))
		content := h.digest(chunk.blob)
		return h.digest(tag[:], content[:]), nil
	case kindStream:
		return h.stream(chunk.stream)
	case kindList:
		return h.list(chunk.children)
	default:
		return Digest{}, fmt.Errorf("unknown chunk kind %d", chunk.kind)
	}
}

func (h *hasher) stream(source io.Reader) (Digest, error) {
	streamHash := sha512.New384()
	length, err := io.Copy(streamHash, &contextReader{ctx: h.ctx, source: source})
	if err != nil {
		return Digest{}, fmt.Errorf("reading stream after %d bytes: %w", length, err)
	}
	var content Digest
	streamHash.Sum(content[:0])
	tag := h.tag("blob", length)
	return h.digest(tag[:], content[:]), nil
}

// contextReader stops a long stream at the next read once ctx is done.
type contextReader struct {
	ctx    context.Context
	source io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.source.Read(p)
}
