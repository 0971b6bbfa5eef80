package fieldcrypt

import "strings"

// Normalizer transforms content into a canonical form before hashing.
//
// IMPORTANT: Use the SAME normalizer on both write and search.
// Mixing normalizers breaks lookups.
type Normalizer func(string) string

// NormalizeContent trims surrounding whitespace and lowercases.
// It is the normalizer behind HashContent and ContentIndex.
//
// Example: "  Meeting Notes " -> "meeting notes"
var NormalizeContent Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeWhitespace lowercases and collapses every run of whitespace to a
// single space, so "Meeting\n  Notes" and "meeting notes" index identically.
var NormalizeWhitespace Normalizer = func(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeTrim trims leading and trailing whitespace only. Preserves case.
var NormalizeTrim Normalizer = func(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeNone is an identity normalizer for exact-match indexes.
var NormalizeNone Normalizer = func(s string) string {
	return s
}
