package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const tatweel = 'ـ'

var letterVariants = map[rune]rune{
	'أ': 'ا',
	'إ': 'ا',
	'آ': 'ا',
	'ٱ': 'ا',
	'ى': 'ي',
	'ؤ': 'و',
	'ئ': 'ي',
	'ة': 'ه',
}

// isArabicMark reports Arabic combining marks: U+0610-U+061A, U+064B-U+065F,
// U+0670 and U+06D6-U+06ED.
func isArabicMark(r rune) bool {
	switch {
	case r >= 0x0610 && r <= 0x061A,
		r >= 0x064B && r <= 0x065F,
		r == 0x0670,
		r >= 0x06D6 && r <= 0x06ED:
		return true
	}
	return false
}

// Normalize folds an artist name for comparison: NFKC, lowercase, no
// diacritics or tatweel, unified letter variants, punctuation as spaces and
// collapsed whitespace.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	text := strings.ToLower(strings.TrimSpace(norm.NFKC.String(name)))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == tatweel || isArabicMark(r) {
			continue
		}
		if mapped, ok := letterVariants[r]; ok {
			r = mapped
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Key holds the derived forms of one artist name.
type Key struct {
	Original   string
	Normalized string
	Tokens     []string
	Unspaced   string
}

// NewKey derives the matching forms of name.
func NewKey(name string) Key {
	original := strings.TrimSpace(name)
	normalized := Normalize(original)
	tokens := strings.Fields(normalized)
	return Key{
		Original:   original,
		Normalized: normalized,
		Tokens:     tokens,
		Unspaced:   strings.Join(tokens, ""),
	}
}
