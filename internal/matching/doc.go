// Package matching scores human-entered artist names against existing
// library artists so near-duplicates (spelling, spacing, diacritics, extra
// honorifics) can be offered before a new artist folder is created.
package matching
