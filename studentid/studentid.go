// Package studentid normalizes student identifiers coming from rosters,
// submission folder names and LMS date exports so they can be compared.
package studentid

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize folds full-width characters to their narrow form, composes
// decomposed sequences (archives created on macOS store NFD names), trims
// surrounding whitespace and upper-cases the result.
func Normalize(raw string) string {
	s := norm.NFC.String(width.Narrow.String(raw))
	return strings.ToUpper(strings.TrimSpace(s))
}

// FromEntry splits a submission entry name of the form
// "<id>_<display name>_<anything else>" into a normalized id and the
// display name. Entries without an underscore yield an empty display name.
func FromEntry(entry string) (id string, displayName string) {
	parts := strings.SplitN(entry, "_", 3)
	id = Normalize(parts[0])
	if len(parts) > 1 {
		displayName = strings.TrimSpace(norm.NFC.String(parts[1]))
		displayName = strings.TrimSuffix(displayName, extOf(displayName))
	}
	return id, displayName
}

// Contains reports whether id occurs in name after both are normalized.
// An empty id never matches.
func Contains(name string, id string) bool {
	id = Normalize(id)
	if id == "" {
		return false
	}
	return strings.Contains(Normalize(name), id)
}

// extOf returns a short file extension such as ".pdf", or "" when the
// trailing dot segment does not look like one.
func extOf(s string) string {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || len(s)-i > 6 || strings.ContainsRune(s[i:], ' ') {
		return ""
	}
	return s[i:]
}
