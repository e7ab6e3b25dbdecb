// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataitem

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/databundle/lib/bytestream"
	"github.com/bureau-foundation/databundle/lib/deephash"
	"github.com/bureau-foundation/databundle/lib/signature"
	"github.com/bureau-foundation/databundle/lib/source"
	"github.com/bureau-foundation/databundle/lib/tags"
	"github.com/bureau-foundation/databundle/lib/testutil"
)

// signedHeader returns a header with a target, an anchor, and two tags,
// signed over payload.
func signedHeader(t *testing.T, signatureType signature.Type, payload []byte) *Header {
	t.Helper()
	header, err := NewHeader(Fields{
		Target: bytes.Repeat([]byte{0x11}, ReferenceSize),
		Anchor: bytes.Repeat([]byte{0x22}, ReferenceSize),
	})
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	header.AddTag("Content-Type", "text/plain")
	header.AddTag("App-Name", "bundle-test")
	if err := header.Sign(context.Background(), testutil.Signer(t, signatureType), bytes.NewReader(payload)); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return header
}

func TestHeaderRoundTrip(t *testing.T) {
	payload := []byte("hello, bundle")
	original := signedHeader(t, signature.TypeEd25519, payload)

	encoded, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if int64(len(encoded)) != original.Size() {
		t.Errorf("len(encoded) = %d, Size() = %d", len(encoded), original.Size())
	}

	stream := bytes.NewReader(append(bytes.Clone(encoded), payload...))
	decoded, err := Decode(context.Background(), stream)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if remaining, _ := io.ReadAll(stream); !bytes.Equal(remaining, payload) {
		t.Errorf("Decode left %q, want the payload %q", remaining, payload)
	}

	if decoded.ID() != original.ID() {
		t.Errorf("ID = %s, want %s", decoded.ID(), original.ID())
	}
	if len(decoded.ID()) != 43 {
		t.Errorf("len(ID) = %d, want 43", len(decoded.ID()))
	}
	if decoded.Type() != signature.TypeEd25519 {
		t.Errorf("Type = %s, want Ed25519", decoded.Type())
	}
	if !bytes.Equal(decoded.Owner(), original.Owner()) || !bytes.Equal(decoded.Signature(), original.Signature()) {
		t.Error("owner or signature changed in round trip")
	}
	if !bytes.Equal(decoded.Target(), original.Target()) || !bytes.Equal(decoded.Anchor(), original.Anchor()) {
		t.Error("target or anchor changed in round trip")
	}
	decodedTags := decoded.Tags()
	if len(decodedTags) != 2 {
		t.Fatalf("decoded %d tags, want 2", len(decodedTags))
	}
	name, value, err := decodedTags[0].Text()
	if err != nil || name != "Content-Type" || value != "text/plain" {
		t.Errorf("tag 0 = %q: %q (%v), want Content-Type: text/plain", name, value, err)
	}

	valid, err := decoded.Verify(context.Background(), bytes.NewReader(payload))
	if err != nil || !valid {
		t.Errorf("decoded Verify = %v, %v; want true, nil", valid, err)
	}

	var unmarshalled Header
	if err := unmarshalled.UnmarshalBinary(encoded); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if unmarshalled.ID() != original.ID() {
		t.Error("UnmarshalBinary produced a different identifier")
	}
	if err := unmarshalled.UnmarshalBinary(append(bytes.Clone(encoded), 0)); err == nil {
		t.Error("UnmarshalBinary accepted a trailing byte")
	}
}

func TestOptionalFieldEncoding(t *testing.T) {
	signer := testutil.Signer(t, signature.TypeEd25519)
	params, _ := signature.Lookup(signature.TypeEd25519)
	presenceOffset := 2 + params.SignatureLength + params.OwnerLength

	absent := &Header{}
	if err := absent.Sign(context.Background(), signer, bytes.NewReader(nil)); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	absentBytes, _ := absent.MarshalBinary()

	present := &Header{}
	target := bytes.Repeat([]byte{0xEE}, ReferenceSize)
	if err := present.SetTarget(target); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if err := present.Sign(context.Background(), signer, bytes.NewReader(nil)); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	presentBytes, _ := present.MarshalBinary()

	if absentBytes[presenceOffset] != 0 {
		t.Errorf("absent target presence byte = %d, want 0", absentBytes[presenceOffset])
	}
	if presentBytes[presenceOffset] != 1 {
		t.Errorf("present target presence byte = %d, want 1", presentBytes[presenceOffset])
	}
	if got := presentBytes[presenceOffset+1 : presenceOffset+1+ReferenceSize]; !bytes.Equal(got, target) {
		t.Errorf("target bytes = %x, want %x", got, target)
	}
	if delta := len(presentBytes) - len(absentBytes); delta != ReferenceSize {
		t.Errorf("present target adds %d bytes, want %d", delta, ReferenceSize)
	}

	// Empty header: 2 + sig + owner + 1 + 1 + 8 + 8 + 1 (empty tag array).
	if want := int64(presenceOffset + 1 + 1 + 16 + 1); absent.Size() != want {
		t.Errorf("minimal header Size() = %d, want %d", absent.Size(), want)
	}
}

func TestAbsentTargetDiffersFromZeroTarget(t *testing.T) {
	owner := bytes.Repeat([]byte{1}, 32)
	absent, _ := NewHeader(Fields{Type: signature.TypeEd25519, Owner: owner})
	zeroed, _ := NewHeader(Fields{Type: signature.TypeEd25519, Owner: owner, Target: make([]byte, ReferenceSize)})

	first, err := absent.SignatureData(context.Background(), bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("SignatureData: %v", err)
	}
	second, _ := zeroed.SignatureData(context.Background(), bytes.NewReader(nil))
	if first == second {
		t.Error("absent target and zero-filled target hash the same")
	}
}

func TestSignatureDataLayout(t *testing.T) {
	header := signedHeader(t, signature.TypeEd25519, []byte("p"))
	got, err := header.SignatureData(context.Background(), bytes.NewReader([]byte("p")))
	if err != nil {
		t.Fatalf("SignatureData: %v", err)
	}
	tagSection, err := tags.Encode(header.Tags())
	if err != nil {
		t.Fatalf("tags.Encode: %v", err)
	}
	want, err := deephash.Sum(context.Background(),
		deephash.Text("dataitem"),
		deephash.Text("1"),
		deephash.Text("2"),
		deephash.Blob(header.Owner()),
		deephash.Blob(header.Target()),
		deephash.Blob(header.Anchor()),
		deephash.Blob(tagSection),
		deephash.Blob([]byte("p")),
	)
	if err != nil {
		t.Fatalf("deephash.Sum: %v", err)
	}
	if got != want {
		t.Errorf("SignatureData = %s, want %s", got, want)
	}
}

func TestSignVerifyEveryType(t *testing.T) {
	payload := testutil.RandomBytes(t, 70_000)
	for _, signatureType := range signature.Types() {
		t.Run(signatureType.String(), func(t *testing.T) {
			header := signedHeader(t, signatureType, payload)
			params, _ := signature.Lookup(signatureType)
			if len(header.Signature()) != params.SignatureLength {
				t.Errorf("len(signature) = %d, want %d", len(header.Signature()), params.SignatureLength)
			}
			if err := header.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}

			valid, err := header.Verify(context.Background(), bytes.NewReader(payload))
			if err != nil || !valid {
				t.Fatalf("Verify = %v, %v; want true, nil", valid, err)
			}

			flippedPayload := bytes.Clone(payload)
			flippedPayload[len(flippedPayload)-1] ^= 1
			if valid, _ := header.Verify(context.Background(), bytes.NewReader(flippedPayload)); valid {
				t.Error("Verify accepted a modified payload")
			}

			encoded, _ := header.MarshalBinary()
			ownerOffset := 2 + params.SignatureLength
			fields := map[string]int{
				"signature": 2 + params.SignatureLength/2,
				"owner":     ownerOffset + params.OwnerLength - 1,
				"tag value": len(encoded) - 2,
			}
			for field, offset := range fields {
				tampered := bytes.Clone(encoded)
				tampered[offset] ^= 0x01
				decoded, err := Decode(context.Background(), bytes.NewReader(tampered))
				if err != nil {
					continue
				}
				if valid, _ := decoded.Verify(context.Background(), bytes.NewReader(payload)); valid {
					t.Errorf("Verify accepted a header with a modified %s byte", field)
				}
			}
		})
	}
}

func TestVerifyIdentifierMismatchSkipsPayload(t *testing.T) {
	header := signedHeader(t, signature.TypeEd25519, []byte("payload"))
	other := signedHeader(t, signature.TypeEd25519, []byte("other payload"))

	claimed, err := NewHeader(Fields{
		Type:      header.Type(),
		Signature: header.Signature(),
		Owner:     header.Owner(),
		Target:    header.Target(),
		Anchor:    header.Anchor(),
		Tags:      header.Tags(),
		ID:        other.ID(),
	})
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}

	payload := testutil.NewTrackedSource([]byte("payload"))
	valid, err := claimed.Verify(context.Background(), payload)
	if err != nil || valid {
		t.Errorf("Verify = %v, %v; want false, nil", valid, err)
	}
	if payload.Touched() {
		t.Error("Verify read the payload despite an identifier mismatch")
	}
	if err := claimed.Validate(); !errors.Is(err, ErrIdentifierMismatch) {
		t.Errorf("Validate error = %v, want ErrIdentifierMismatch", err)
	}

	restored, _ := NewHeader(Fields{
		Type:      header.Type(),
		Signature: header.Signature(),
		Owner:     header.Owner(),
		Target:    header.Target(),
		Anchor:    header.Anchor(),
		Tags:      header.Tags(),
	})
	if restored.ID() != header.ID() {
		t.Errorf("derived ID = %s, want %s", restored.ID(), header.ID())
	}
	if valid, err := restored.Verify(context.Background(), bytes.NewReader([]byte("payload"))); err != nil || !valid {
		t.Errorf("restored Verify = %v, %v; want true, nil", valid, err)
	}
}

func TestSignOnce(t *testing.T) {
	header := signedHeader(t, signature.TypeEd25519, nil)
	signer := testutil.Signer(t, signature.TypeEd25519)
	if err := header.Sign(context.Background(), signer, bytes.NewReader(nil)); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("second Sign error = %v, want ErrAlreadySigned", err)
	}
	if err := header.AddTag("late", "tag"); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("AddTag after Sign error = %v, want ErrAlreadySigned", err)
	}
	if err := header.SetAnchor(nil); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("SetAnchor after Sign error = %v, want ErrAlreadySigned", err)
	}
}

func TestSignRejectsWrongOwnerLength(t *testing.T) {
	header, err := NewHeader(Fields{Type: signature.TypeEd25519, Owner: bytes.Repeat([]byte{1}, 32)})
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	signer := testutil.Signer(t, signature.TypeES256K)
	if err := header.Sign(context.Background(), signer, bytes.NewReader(nil)); !errors.Is(err, ErrFieldLength) {
		t.Errorf("Sign with a 32-byte owner for ES256K error = %v, want ErrFieldLength", err)
	}
}

func TestSignPropagatesPayloadError(t *testing.T) {
	failure := errors.New("payload unavailable")
	header := &Header{}
	err := header.Sign(context.Background(), testutil.Signer(t, signature.TypeEd25519), &failingReader{err: failure})
	if !errors.Is(err, failure) {
		t.Errorf("Sign error = %v, want wrapped %v", err, failure)
	}
	if header.Signed() {
		t.Error("header is signed after a failed Sign")
	}
	if header.Type() != 0 || header.Owner() != nil {
		t.Errorf("failed Sign left type %d and owner %x on the header", header.Type(), header.Owner())
	}

	signer := testutil.Signer(t, signature.TypeES256K)
	if err := header.Sign(context.Background(), signer, bytes.NewReader([]byte("retry"))); err != nil {
		t.Fatalf("Sign after a failed attempt: %v", err)
	}
	if !bytes.Equal(header.Owner(), signer.Owner()) {
		t.Error("retried Sign did not take the new signer's owner")
	}
	if valid, err := header.Verify(context.Background(), bytes.NewReader([]byte("retry"))); err != nil || !valid {
		t.Errorf("Verify after retry = %v, %v; want true, nil", valid, err)
	}
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestNewHeaderValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		err    error
	}{
		{"short target", Fields{Target: []byte{1, 2}}, ErrFieldLength},
		{"short anchor", Fields{Anchor: make([]byte, 31)}, ErrFieldLength},
		{"signature without type", Fields{Signature: make([]byte, 64)}, ErrFieldLength},
		{"wrong signature length", Fields{Type: signature.TypeEd25519, Signature: make([]byte, 65)}, ErrFieldLength},
		{"wrong owner length", Fields{Type: signature.TypeES256KCompact, Owner: make([]byte, 65)}, ErrFieldLength},
		{"signature without owner", Fields{Type: signature.TypeEd25519, Signature: bytes.Repeat([]byte{7}, 64)}, ErrFieldLength},
		{"unknown type", Fields{Type: 42}, signature.ErrUnsupported},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewHeader(test.fields); !errors.Is(err, test.err) {
				t.Errorf("NewHeader error = %v, want %v", err, test.err)
			}
		})
	}
}

func TestSerializeRequiresOwner(t *testing.T) {
	// A header whose owner was dropped would shift every later field
	// on the wire.
	header := signedHeader(t, signature.TypeEd25519, nil)
	header.owner = nil

	if _, err := header.MarshalBinary(); !errors.Is(err, ErrFieldLength) {
		t.Errorf("MarshalBinary error = %v, want ErrFieldLength", err)
	}
	item := &Item{Header: header, Payload: source.Bytes(nil)}
	if _, err := item.Open(context.Background()); !errors.Is(err, ErrFieldLength) {
		t.Errorf("Item.Open error = %v, want ErrFieldLength", err)
	}
	if err := header.Validate(); !errors.Is(err, ErrFieldLength) {
		t.Errorf("Validate error = %v, want ErrFieldLength", err)
	}
}

func TestDecodeRejectsMultiBlockTags(t *testing.T) {
	header := signedHeader(t, signature.TypeEd25519, nil)
	encoded, _ := header.MarshalBinary()

	tagSection, err := tags.Encode(header.Tags())
	if err != nil {
		t.Fatalf("tags.Encode: %v", err)
	}
	decodedTags, err := tags.Decode(tagSection)
	if err != nil {
		t.Fatalf("tags.Decode: %v", err)
	}
	// The same two tags as two one-tag blocks.
	var split []byte
	for _, tag := range decodedTags {
		block, err := tags.Encode([]tags.Tag{tag})
		if err != nil {
			t.Fatalf("tags.Encode: %v", err)
		}
		split = append(split, block[:len(block)-1]...)
	}
	split = append(split, 0)
	if splitTags, err := tags.Decode(split); err != nil || len(splitTags) != 2 {
		t.Fatalf("tags.Decode(split) = %v, %v", splitTags, err)
	}

	prefix := encoded[:len(encoded)-len(tagSection)-8]
	rewritten := bytes.Clone(prefix)
	rewritten = append(rewritten, byte(len(split)), 0, 0, 0, 0, 0, 0, 0)
	rewritten = append(rewritten, split...)

	if _, err := Decode(context.Background(), bytes.NewReader(rewritten)); !errors.Is(err, ErrMalformedTags) {
		t.Errorf("Decode error = %v, want ErrMalformedTags", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	header := signedHeader(t, signature.TypeEd25519, nil)
	encoded, _ := header.MarshalBinary()
	params, _ := signature.Lookup(signature.TypeEd25519)
	targetOffset := 2 + params.SignatureLength + params.OwnerLength
	// Both target and anchor are present in signedHeader.
	countOffset := targetOffset + 2*(1+ReferenceSize)

	unknownType := bytes.Clone(encoded)
	unknownType[0] = 9

	badPresence := bytes.Clone(encoded)
	badPresence[targetOffset] = 2

	wrongCount := bytes.Clone(encoded)
	wrongCount[countOffset] = 3

	badTags := bytes.Clone(encoded)
	badTags[len(badTags)-1] = 5

	hugeTags := bytes.Clone(encoded)
	copy(hugeTags[countOffset+8:], []byte{0, 0, 0, 0x40, 0, 0, 0, 0})

	tests := []struct {
		name  string
		input []byte
		err   error
	}{
		{"empty", nil, bytestream.ErrShortRead},
		{"truncated", encoded[:len(encoded)-3], bytestream.ErrShortRead},
		{"unknown type", unknownType, signature.ErrUnsupported},
		{"presence byte 2", badPresence, bytestream.ErrInvalidPresence},
		{"tag count mismatch", wrongCount, ErrMalformedTags},
		{"malformed tag bytes", badTags, ErrMalformedTags},
		{"oversized tag section", hugeTags, bytestream.ErrFieldTooLarge},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(context.Background(), bytes.NewReader(test.input))
			if !errors.Is(err, test.err) {
				t.Errorf("Decode error = %v, want %v", err, test.err)
			}
		})
	}
}

func TestDecodeUnknownTypeStopsReading(t *testing.T) {
	input := append([]byte{9, 0}, bytes.Repeat([]byte{0xAB}, 100)...)
	stream := bytes.NewReader(input)
	if _, err := Decode(context.Background(), stream); !errors.Is(err, signature.ErrUnsupported) {
		t.Fatalf("Decode error = %v, want ErrUnsupported", err)
	}
	if stream.Len() != 100 {
		t.Errorf("Decode consumed %d bytes past the type field", 100-stream.Len())
	}
}

func TestItemOpenConcatenates(t *testing.T) {
	payloadBytes := []byte("payload bytes that follow the header")
	header := signedHeader(t, signature.TypeEd25519, payloadBytes)
	payload := testutil.NewCountingSource(payloadBytes)
	item := &Item{Header: header, Payload: payload}

	stream, err := item.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	headerBytes := make([]byte, header.Size())
	if _, err := io.ReadFull(stream, headerBytes); err != nil {
		t.Fatalf("reading header bytes: %v", err)
	}
	if payload.Opens() != 0 {
		t.Fatal("payload opened before the header stream was exhausted")
	}
	encoded, _ := header.MarshalBinary()
	if !bytes.Equal(headerBytes, encoded) {
		t.Error("item stream does not start with the serialized header")
	}

	rest, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("reading payload: %v", err)
	}
	if !bytes.Equal(rest, payloadBytes) {
		t.Errorf("payload = %q, want %q", rest, payloadBytes)
	}
	if payload.Opens() != 1 {
		t.Errorf("payload opened %d times, want 1", payload.Opens())
	}

	stream.Close()
	stream.Close()
	if closes := payload.Streams()[0].Closes(); closes != 1 {
		t.Errorf("payload stream closed %d times, want 1", closes)
	}

	size, err := item.Size()
	if err != nil || size != header.Size()+int64(len(payloadBytes)) {
		t.Errorf("Size() = %d, %v; want %d", size, err, header.Size()+int64(len(payloadBytes)))
	}
}

func TestItemOpenUnsigned(t *testing.T) {
	item := &Item{Header: &Header{}, Payload: source.Bytes(nil)}
	if _, err := item.Open(context.Background()); !errors.Is(err, ErrUnsigned) {
		t.Errorf("Open error = %v, want ErrUnsigned", err)
	}
}

func TestSignWriteLoad(t *testing.T) {
	payloadBytes := testutil.RandomBytes(t, 100_000)
	for _, suffix := range []string{".item", ".item.zst", ".item.lz4"} {
		t.Run(suffix, func(t *testing.T) {
			header, _ := NewHeader(Fields{})
			header.AddTag("Name", suffix)
			payload := source.Stable(source.Bytes(payloadBytes))
			item, err := Sign(context.Background(), header, testutil.Signer(t, signature.TypeES256K), payload)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			path := filepath.Join(t.TempDir(), "out"+suffix)
			sink, err := source.Create(path, source.CompressionForPath(path))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			stream, err := item.Open(context.Background())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if _, err := io.Copy(sink, stream); err != nil {
				t.Fatalf("Copy: %v", err)
			}
			stream.Close()
			if err := sink.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			loaded, err := LoadFile(context.Background(), path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if loaded.Header.ID() != item.Header.ID() {
				t.Errorf("loaded ID = %s, want %s", loaded.Header.ID(), item.Header.ID())
			}
			valid, err := loaded.Verify(context.Background())
			if err != nil || !valid {
				t.Errorf("loaded Verify = %v, %v; want true, nil", valid, err)
			}
			size, err := loaded.Size()
			if err != nil || size != item.Header.Size()+int64(len(payloadBytes)) {
				t.Errorf("loaded Size() = %d, %v", size, err)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.item"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile error = %v, want os.ErrNotExist", err)
	}
}
