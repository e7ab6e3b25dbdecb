// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataitem

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/bureau-foundation/databundle/lib/deephash"
	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/version"
)

// SignatureData computes the deep hash that the signature covers,
// draining payload.
func (h *Header) SignatureData(ctx context.Context, payload io.Reader) (deephash.Digest, error) {
	return h.signatureData(ctx, h.signatureType, h.owner, payload)
}

func (h *Header) signatureData(ctx context.Context, signatureType signature.Type, owner []byte, payload io.Reader) (deephash.Digest, error) {
	return deephash.Sum(ctx,
		deephash.Text("dataitem"),
		deephash.Text(version.ItemFormat),
		deephash.Text(strconv.Itoa(int(signatureType))),
		deephash.Blob(owner),
		deephash.Blob(h.target),
		deephash.Blob(h.anchor),
		deephash.Blob(h.tagBytes()),
		deephash.Stream(payload),
	)
}

// Sign signs the header and payload with signer. The owner is taken
// from the signer unless already set. A header can be signed once; on
// error it is left unchanged.
func (h *Header) Sign(ctx context.Context, signer signature.Signer, payload io.Reader) error {
	if h.Signed() {
		return ErrAlreadySigned
	}
	params, err := signature.Lookup(signer.Type())
	if err != nil {
		return err
	}
	owner := h.owner
	if len(owner) == 0 {
		owner = signer.Owner()
	}
	if len(owner) != params.OwnerLength {
		return fmt.Errorf("%w: %s owner is %d bytes, want %d", ErrFieldLength, params.Name, len(owner), params.OwnerLength)
	}

	data, err := h.signatureData(ctx, signer.Type(), owner, payload)
	if err != nil {
		return fmt.Errorf("hashing item: %w", err)
	}
	signed, err := signer.Sign(data[:])
	if err != nil {
		return err
	}
	if len(signed) != params.SignatureLength {
		return fmt.Errorf("%w: signer produced %d bytes, %s wants %d", ErrFieldLength, len(signed), params.Name, params.SignatureLength)
	}
	h.signatureType = signer.Type()
	h.owner = owner
	h.signature = signed
	h.id = itemid.FromSignature(signed).String()
	return nil
}

// Verify reports whether the header's signature is valid for payload.
// A header whose identifier does not match its signature is invalid
// without the payload being read. An unknown signature type is an
// error wrapping signature.ErrUnsupported.
func (h *Header) Verify(ctx context.Context, payload io.Reader) (bool, error) {
	if !h.Signed() {
		return false, nil
	}
	if itemid.FromSignature(h.signature).String() != h.id {
		return false, nil
	}
	verifier, err := signature.VerifierFor(h.signatureType)
	if err != nil {
		return false, err
	}
	data, err := h.SignatureData(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("hashing item: %w", err)
	}
	return verifier.Verify(h.owner, data[:], h.signature)
}
