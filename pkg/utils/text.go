// Package utils provides shared helpers for text, vectors and logging.
package utils

import "strings"

// Truncate returns s cut to maxLen runes with "..." appended when it was cut.
// A maxLen of 0 or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// OneLine collapses every run of whitespace, newlines included, into a single space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
