// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tags

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeEmpty(t *testing.T) {
	got, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0}) {
		t.Errorf("Encode(nil) = %v, want [0]", got)
	}
	decoded, err := Decode([]byte{0})
	if err != nil {
		t.Fatalf("Decode([0]) failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Decode([0]) = %v, want empty", decoded)
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	// One tag {name: "a", value: "bc"}: count 1 -> 0x02, "a" -> 0x02 'a',
	// "bc" -> 0x04 'b' 'c', terminator 0x00.
	got, err := Encode([]Tag{{Name: "a", Value: "bc"}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x02, 0x02, 'a', 0x04, 'b', 'c', 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestEncodeLongString(t *testing.T) {
	// A 100-byte value has length prefix zigzag(100) = 200 = 0xC8 0x01.
	value := string(bytes.Repeat([]byte{'x'}, 100))
	got, err := Encode([]Tag{{Name: "", Value: value}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got[0] != 0x02 || got[1] != 0x00 || got[2] != 0xC8 || got[3] != 0x01 {
		t.Errorf("unexpected prefix %v", got[:4])
	}
	if len(got) != 4+100+1 {
		t.Errorf("length = %d, want %d", len(got), 105)
	}
}

func TestRoundTrip(t *testing.T) {
	tags := []Tag{
		FromText("App-Name", "Test-App"),
		FromText("Content-Type", "text/markdown"),
		{Name: "", Value: ""},
	}
	encoded, err := Encode(tags)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, tags) {
		t.Errorf("round trip = %v, want %v", decoded, tags)
	}

	name, value, err := decoded[1].Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if name != "Content-Type" || value != "text/markdown" {
		t.Errorf("Text = %q, %q", name, value)
	}
}

func TestEncodeSingleBlock(t *testing.T) {
	tags := []Tag{{Name: "a", Value: "b"}, {Name: "c", Value: "d"}, {Name: "e", Value: "f"}}
	got, err := Encode(tags)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x06, 0x02, 'a', 0x02, 'b', 0x02, 'c', 0x02, 'd', 0x02, 'e', 0x02, 'f', 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestDecodeMultipleBlocks(t *testing.T) {
	// Two blocks: a positive count block and a negative count block
	// with a byte size, then the terminator.
	data := []byte{
		0x02, 0x02, 'a', 0x02, 'b', // block of 1
		0x01, 0x08, 0x02, 'c', 0x02, 'd', // count -1, size 4
		0x00,
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []Tag{{Name: "a", Value: "b"}, {Name: "c", Value: "d"}}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("Decode = %v, want %v", decoded, want)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing terminator", []byte{0x02, 0x02, 'a', 0x02, 'b'}},
		{"truncated string", []byte{0x02, 0x08, 'a'}},
		{"trailing bytes", []byte{0x00, 0x00}},
		{"count beyond data", []byte{0x7E, 0x00}},
		{"negative string length", []byte{0x02, 0x01, 0x00}},
		{"runaway varint", bytes.Repeat([]byte{0xFF}, 12)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decode(test.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%v) error = %v, want ErrMalformed", test.data, err)
			}
		})
	}
}

func TestTextRejectsInvalidBase64(t *testing.T) {
	if _, _, err := (Tag{Name: "!!", Value: ""}).Text(); err == nil {
		t.Error("Text should reject invalid base64url")
	}
}
