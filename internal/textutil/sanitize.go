package textutil

import (
	"strings"
	"unicode"
)

const illegalPathRunes = `<>:"/\|?*`

// SanitizePathSegment makes name safe to use as a single directory or file name.
// Characters from illegalPathRunes and control characters are dropped; letters
// from any script are kept. Leading and trailing dots and spaces are trimmed and
// an empty result becomes "untitled".
func SanitizePathSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(illegalPathRunes, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "untitled"
	}
	return out
}
