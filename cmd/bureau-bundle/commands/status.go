// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	validStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Bold(true)

	invalidStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Bold(true)

	detailStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))
)

// printStatus writes one verification line: a coloured OK or FAIL, the
// item identifier, and the failure detail if any.
func printStatus(w io.Writer, id string, valid bool, detail string) {
	status := validStyle.Render("OK  ")
	if !valid {
		status = invalidStyle.Render("FAIL")
	}
	line := status + " " + id
	if detail != "" {
		line += " " + detailStyle.Render(detail)
	}
	fmt.Fprintln(w, line)
}

// printSummary writes the closing line of a multi-item verification.
func printSummary(w io.Writer, total, invalid int) {
	if invalid == 0 {
		fmt.Fprintln(w, validStyle.Render(fmt.Sprintf("%d of %d items valid", total, total)))
		return
	}
	fmt.Fprintln(w, invalidStyle.Render(fmt.Sprintf("%d of %d items invalid", invalid, total)))
}
