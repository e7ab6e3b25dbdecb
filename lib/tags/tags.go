// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tags

import (
	"errors"
	"fmt"

	"github.com/linkedin/goavro/v2"

	"github.com/bureau-foundation/databundle/lib/itemid"
)

// ErrMalformed is returned for a tag section that is not a valid
// encoding of the tag array.
var ErrMalformed = errors.New("malformed tag section")

// Schema is the Avro schema of a tag section.
const Schema = `{
	"type": "array",
	"items": {
		"type": "record",
		"name": "Tag",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "value", "type": "string"}
		]
	}
}`

// codec is built once from Schema and is safe for concurrent use.
var codec *goavro.Codec

func init() {
	var err error
	codec, err = goavro.NewCodec(Schema)
	if err != nil {
		panic("tags: Avro codec initialization failed: " + err.Error())
	}
}

// Tag is one name/value pair in its wire form.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FromText builds a wire tag from human-readable text by base64url
// encoding both halves.
func FromText(name, value string) Tag {
	return Tag{
		Name:  itemid.Encode([]byte(name)),
		Value: itemid.Encode([]byte(value)),
	}
}

// Text decodes the base64url name and value of a wire tag.
func (t Tag) Text() (name, value string, err error) {
	rawName, err := itemid.Decode(t.Name)
	if err != nil {
		return "", "", fmt.Errorf("decoding tag name %q: %w", t.Name, err)
	}
	rawValue, err := itemid.Decode(t.Value)
	if err != nil {
		return "", "", fmt.Errorf("decoding tag value %q: %w", t.Value, err)
	}
	return string(rawName), string(rawValue), nil
}

// Encode returns the tag section bytes for tags: a single block
// followed by the terminator.
func Encode(tags []Tag) ([]byte, error) {
	native := make([]any, len(tags))
	for index, tag := range tags {
		native[index] = map[string]any{"name": tag.Name, "value": tag.Value}
	}
	encoded, err := codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("encoding %d tags: %w", len(tags), err)
	}
	return encoded, nil
}

// Decode parses a tag section. Any valid block layout is accepted;
// the whole of data must be consumed.
func Decode(data []byte) ([]Tag, error) {
	native, remaining, err := codec.NativeFromBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(remaining) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(remaining))
	}
	records, ok := native.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: decoded %T, want array", ErrMalformed, native)
	}
	tags := make([]Tag, 0, len(records))
	for index, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: tag %d decoded as %T", ErrMalformed, index, record)
		}
		name, nameOK := fields["name"].(string)
		value, valueOK := fields["value"].(string)
		if !nameOK || !valueOK {
			return nil, fmt.Errorf("%w: tag %d has non-string fields", ErrMalformed, index)
		}
		tags = append(tags, Tag{Name: name, Value: value})
	}
	return tags, nil
}
