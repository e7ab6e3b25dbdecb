// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deephash computes the recursive, order-sensitive SHA-384
// digest that data item signatures are made over.
//
// The input is an ordered list of chunks. A chunk is a byte blob held
// in memory ([Blob]), a stream of unknown length ([Stream]), or a
// nested list ([List]). With H = SHA-384:
//
//	list:   acc = H("list" ‖ decimal(len)); acc = H(acc ‖ hash(chunk)) for each chunk
//	blob:   H(H("blob" ‖ decimal(len)) ‖ H(bytes))
//	stream: same as blob, with len known only after the stream is drained
//
// A stream is pulled through the hasher once, in constant memory, while
// its bytes are counted; the length tag is computed after exhaustion.
// A blob and a stream yielding the same bytes therefore hash
// identically, which is what lets a signer stream a multi-gigabyte
// payload that a verifier later holds in memory, or the reverse.
//
// The fold over chunks is strictly sequential: each step consumes the
// previous accumulator, and stream chunks are drained in list order.
package deephash
