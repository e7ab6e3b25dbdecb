// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"crypto/rand"
	"testing"
)

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("reading %d random bytes: %v", n, err)
	}
	return data
}
