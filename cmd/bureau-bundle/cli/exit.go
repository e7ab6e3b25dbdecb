// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. Verification commands return it when the check ran
// to completion and the answer is "invalid": the command has already
// written its own report.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this method on
// returned errors to tell a reported result from an unexpected error.
func (e *ExitError) ExitCode() int {
	return e.Code
}
