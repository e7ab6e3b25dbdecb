// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"sync"
	"testing"

	"github.com/bureau-foundation/databundle/lib/signature"
)

var (
	rsaOnce   sync.Once
	rsaSigner signature.Signer
	rsaErr    error
)

// Signer returns a signer of the given type with a fresh key. The
// PS256 key is generated once per test binary and shared, since
// 4096-bit RSA generation takes seconds.
func Signer(t *testing.T, signatureType signature.Type) signature.Signer {
	t.Helper()
	if signatureType == signature.TypePS256 {
		rsaOnce.Do(func() {
			rsaSigner, rsaErr = signature.GenerateRSA()
		})
		if rsaErr != nil {
			t.Fatalf("generating RSA test key: %v", rsaErr)
		}
		return rsaSigner
	}
	signer, err := signature.Generate(signatureType)
	if err != nil {
		t.Fatalf("generating %s test key: %v", signatureType, err)
	}
	return signer
}
