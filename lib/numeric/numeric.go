// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package numeric

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrOverflow is returned when a value needs more bytes than the
	// field width allows.
	ErrOverflow = errors.New("value does not fit in field width")

	// ErrNegative is returned when encoding a negative big integer.
	ErrNegative = errors.New("value is negative")

	// ErrWidth is returned for a zero or negative field width.
	ErrWidth = errors.New("invalid field width")
)

// EncodeUint returns v as width little-endian bytes.
func EncodeUint(v uint64, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWidth, width)
	}
	buffer := make([]byte, width)
	if err := PutUint(buffer, v); err != nil {
		return nil, err
	}
	return buffer, nil
}

// PutUint writes v into dst as len(dst) little-endian bytes. Bytes of
// dst beyond the value's magnitude are zeroed.
func PutUint(dst []byte, v uint64) error {
	if len(dst) == 0 {
		return fmt.Errorf("%w: 0", ErrWidth)
	}
	remaining := v
	for index := range dst {
		dst[index] = byte(remaining)
		remaining >>= 8
	}
	if remaining != 0 {
		return fmt.Errorf("%w: %d in %d bytes", ErrOverflow, v, len(dst))
	}
	return nil
}

// DecodeUint interprets b as a little-endian unsigned integer. Fields
// wider than 8 bytes are accepted as long as the bytes above the low 8
// are all zero.
func DecodeUint(b []byte) (uint64, error) {
	var value uint64
	for index := len(b) - 1; index >= 0; index-- {
		if index >= 8 {
			if b[index] != 0 {
				return 0, fmt.Errorf("%w: %d-byte field exceeds uint64", ErrOverflow, len(b))
			}
			continue
		}
		value = value<<8 | uint64(b[index])
	}
	return value, nil
}

// EncodeBigUint returns v as width little-endian bytes.
func EncodeBigUint(v *big.Int, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWidth, width)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, v)
	}
	bigEndian := v.Bytes()
	if len(bigEndian) > width {
		return nil, fmt.Errorf("%w: %s in %d bytes", ErrOverflow, v, width)
	}
	buffer := make([]byte, width)
	for index, value := range bigEndian {
		buffer[len(bigEndian)-1-index] = value
	}
	return buffer, nil
}

// DecodeBigUint interprets b as a little-endian unsigned integer.
func DecodeBigUint(b []byte) *big.Int {
	bigEndian := make([]byte, len(b))
	for index, value := range b {
		bigEndian[len(b)-1-index] = value
	}
	return new(big.Int).SetBytes(bigEndian)
}
