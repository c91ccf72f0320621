// Package strings holds text helpers shared by launchkit's output code.
package strings

import (
	"strings"
)

// DefaultCellWidth is the widest value shown in a table cell.
const DefaultCellWidth = 60

// MinTruncateLen is the smallest maxLen Truncate honours.
const MinTruncateLen = 4

// Truncate collapses all whitespace runs in s into single spaces and cuts the
// result to maxLen runes, ending it with "..." when something was cut.
// maxLen below MinTruncateLen is raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
