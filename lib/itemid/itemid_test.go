// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package itemid

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"
)

func TestFromSignature(t *testing.T) {
	signature := bytes.Repeat([]byte{0x42}, 512)
	id := FromSignature(signature)
	want := sha256.Sum256(signature)
	if !bytes.Equal(id[:], want[:]) {
		t.Errorf("FromSignature = %x, want %x", id, want)
	}
	if len(id.String()) != TextSize {
		t.Errorf("text form length = %d, want %d", len(id.String()), TextSize)
	}
}

func TestParseRoundTrip(t *testing.T) {
	const text = "_34fSWApnGb7TzFbarzCCqawly_OCrcP3q6vA0sKE38"
	id, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	if id.String() != text {
		t.Errorf("round trip = %q, want %q", id.String(), text)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"short", "abc"},
		{"padded", "_34fSWApnGb7TzFbarzCCqawly_OCrcP3q6vA0sKE3="},
		{"standard alphabet", "/34fSWApnGb7TzFbarzCCqawly+OCrcP3q6vA0sKE38"},
		{"non-canonical trailing bits", "_34fSWApnGb7TzFbarzCCqawly_OCrcP3q6vA0sKE39"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse(test.text); !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalid", test.text, err)
			}
		})
	}
}

func TestFromBytes(t *testing.T) {
	if _, err := FromBytes(make([]byte, 31)); !errors.Is(err, ErrInvalid) {
		t.Errorf("FromBytes(31 bytes) error = %v, want ErrInvalid", err)
	}
	raw := bytes.Repeat([]byte{9}, 32)
	id, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if !bytes.Equal(id[:], raw) {
		t.Error("FromBytes did not copy the input")
	}
}

func TestEncodeDecode(t *testing.T) {
	encoded := Encode([]byte("App-Name"))
	if encoded != "QXBwLU5hbWU" {
		t.Errorf("Encode(App-Name) = %q, want QXBwLU5hbWU", encoded)
	}
	decoded, err := Decode(encoded)
	if err != nil || string(decoded) != "App-Name" {
		t.Errorf("Decode = %q, %v", decoded, err)
	}
}

func TestTextMarshaling(t *testing.T) {
	const text = "_34fSWApnGb7TzFbarzCCqawly_OCrcP3q6vA0sKE38"
	var id ID
	if err := id.UnmarshalText([]byte(text)); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	marshalled, err := id.MarshalText()
	if err != nil || string(marshalled) != text {
		t.Errorf("MarshalText = %q, %v; want %q", marshalled, err, text)
	}
	if err := id.UnmarshalText([]byte("short")); !errors.Is(err, ErrInvalid) {
		t.Errorf("UnmarshalText(short) error = %v, want ErrInvalid", err)
	}
}
