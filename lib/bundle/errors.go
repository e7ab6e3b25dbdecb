// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import "errors"

// ErrItemNotFound matches every *NotFoundError via errors.Is.
var ErrItemNotFound = errors.New("item not found in bundle")

// NotFoundError reports a lookup for an identifier the bundle does not
// contain.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "item " + e.ID + " not found in bundle"
}

// Is reports whether target is ErrItemNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}
