// Package util provides small helpers shared by the commands and the
// conversion pipeline.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateString shortens s to maxLen runes, ending with "..." when cut.
// It ignores ANSI escape codes and display width; use TruncateANSI for
// styled terminal output.
func TruncateString(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateANSI shortens s to maxWidth terminal columns, keeping escape
// sequences intact.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// TruncatePath shortens a file path to maxWidth columns by cutting from the
// left, so the file name stays visible.
func TruncatePath(p string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if ansi.StringWidth(p) <= maxWidth {
		return p
	}
	return ansi.TruncateLeft(p, ansi.StringWidth(p)-maxWidth+len(ellipsis), ellipsis)
}
