// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataitem

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bureau-foundation/databundle/lib/itemid"
	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/tags"
)

// ReferenceSize is the byte length of the target and anchor fields.
const ReferenceSize = 32

var (
	// ErrAlreadySigned is returned when a signed header is signed again
	// or has a tag added.
	ErrAlreadySigned = errors.New("data item header is already signed")

	// ErrUnsigned is returned when serializing a header that has no
	// signature yet.
	ErrUnsigned = errors.New("data item header is not signed")

	// ErrIdentifierMismatch is returned by Validate when the claimed
	// identifier is not the hash of the signature.
	ErrIdentifierMismatch = errors.New("identifier does not match signature")

	// ErrMalformedTags is returned when the tag section cannot be
	// decoded or its length disagrees with the tag count field.
	ErrMalformedTags = errors.New("malformed tag section")

	// ErrFieldLength is returned when a fixed-size field has the wrong
	// length for its signature type.
	ErrFieldLength = errors.New("field has wrong length")
)

// Fields is the input to NewHeader. Nil optional fields are absent.
type Fields struct {
	Type      signature.Type
	Signature []byte
	Owner     []byte
	Target    []byte
	Anchor    []byte
	Tags      []tags.Tag

	// ID is a claimed identifier, for headers restored from an external
	// record. When empty it is derived from Signature.
	ID string
}

// Header is a data item header. The zero value is an unsigned header
// with no owner, target, anchor, or tags.
type Header struct {
	signatureType signature.Type
	signature     []byte
	owner         []byte
	target        []byte
	anchor        []byte
	tags          []tags.Tag
	id            string

	// encodedTags is tags.Encode(tags); nil only when tags is empty.
	encodedTags []byte
}

// NewHeader builds a header from fields. Field lengths are checked
// against the signature type's registry entry; a zero type is allowed
// only for an unsigned header, and a signature needs a full-width
// owner. The slices are copied.
func NewHeader(fields Fields) (*Header, error) {
	header := &Header{
		signatureType: fields.Type,
		signature:     bytes.Clone(fields.Signature),
		owner:         bytes.Clone(fields.Owner),
		target:        bytes.Clone(fields.Target),
		anchor:        bytes.Clone(fields.Anchor),
		tags:          append([]tags.Tag(nil), fields.Tags...),
	}
	if err := header.checkLengths(); err != nil {
		return nil, err
	}
	encoded, err := tags.Encode(header.tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTags, err)
	}
	header.encodedTags = encoded
	switch {
	case fields.ID != "":
		if _, err := itemid.Parse(fields.ID); err != nil {
			return nil, err
		}
		header.id = fields.ID
	case len(header.signature) > 0:
		header.id = itemid.FromSignature(header.signature).String()
	}
	return header, nil
}

func (h *Header) checkLengths() error {
	if h.target != nil && len(h.target) != ReferenceSize {
		return fmt.Errorf("%w: target is %d bytes, want %d", ErrFieldLength, len(h.target), ReferenceSize)
	}
	if h.anchor != nil && len(h.anchor) != ReferenceSize {
		return fmt.Errorf("%w: anchor is %d bytes, want %d", ErrFieldLength, len(h.anchor), ReferenceSize)
	}
	if h.signatureType == 0 {
		if len(h.signature) > 0 {
			return fmt.Errorf("%w: signature present without a signature type", ErrFieldLength)
		}
		return nil
	}
	params, err := signature.Lookup(h.signatureType)
	if err != nil {
		return err
	}
	if len(h.signature) != 0 && len(h.signature) != params.SignatureLength {
		return fmt.Errorf("%w: %s signature is %d bytes, want %d", ErrFieldLength, params.Name, len(h.signature), params.SignatureLength)
	}
	if len(h.owner) != 0 && len(h.owner) != params.OwnerLength {
		return fmt.Errorf("%w: %s owner is %d bytes, want %d", ErrFieldLength, params.Name, len(h.owner), params.OwnerLength)
	}
	if len(h.signature) != 0 && len(h.owner) == 0 {
		return fmt.Errorf("%w: %s signature without an owner", ErrFieldLength, params.Name)
	}
	return nil
}

// Signed reports whether the header carries a signature.
func (h *Header) Signed() bool { return len(h.signature) > 0 }

// ID returns the identifier, or "" for an unsigned header.
func (h *Header) ID() string { return h.id }

// Type returns the signature type.
func (h *Header) Type() signature.Type { return h.signatureType }

// Signature returns a copy of the signature.
func (h *Header) Signature() []byte { return bytes.Clone(h.signature) }

// Owner returns a copy of the owner public key.
func (h *Header) Owner() []byte { return bytes.Clone(h.owner) }

// Target returns a copy of the target, or nil when absent.
func (h *Header) Target() []byte { return bytes.Clone(h.target) }

// Anchor returns a copy of the anchor, or nil when absent.
func (h *Header) Anchor() []byte { return bytes.Clone(h.anchor) }

// Tags returns a copy of the wire tags.
func (h *Header) Tags() []tags.Tag { return append([]tags.Tag(nil), h.tags...) }

// AddTag appends a tag, base64url-encoding name and value.
func (h *Header) AddTag(name, value string) error {
	if h.Signed() {
		return ErrAlreadySigned
	}
	updated := append(h.Tags(), tags.FromText(name, value))
	encoded, err := tags.Encode(updated)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedTags, err)
	}
	h.tags = updated
	h.encodedTags = encoded
	return nil
}

// SetTarget sets or clears (nil) the target of an unsigned header.
func (h *Header) SetTarget(target []byte) error {
	return h.setReference(&h.target, "target", target)
}

// SetAnchor sets or clears (nil) the anchor of an unsigned header.
func (h *Header) SetAnchor(anchor []byte) error {
	return h.setReference(&h.anchor, "anchor", anchor)
}

func (h *Header) setReference(field *[]byte, name string, value []byte) error {
	if h.Signed() {
		return ErrAlreadySigned
	}
	if value != nil && len(value) != ReferenceSize {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrFieldLength, name, len(value), ReferenceSize)
	}
	*field = bytes.Clone(value)
	return nil
}

// Validate checks field lengths against the registry and that the
// identifier matches the signature. It does not check the signature.
func (h *Header) Validate() error {
	if !h.Signed() {
		return ErrUnsigned
	}
	if err := h.checkLengths(); err != nil {
		return err
	}
	if expected := itemid.FromSignature(h.signature).String(); h.id != expected {
		return fmt.Errorf("%w: claimed %s, signature hashes to %s", ErrIdentifierMismatch, h.id, expected)
	}
	return nil
}

// emptyTagSection is the encoding of an empty tag array.
var emptyTagSection = []byte{0}

func (h *Header) tagBytes() []byte {
	if h.encodedTags == nil {
		return emptyTagSection
	}
	return h.encodedTags
}
