package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CodeAlphabet is the set of characters a session code is drawn from.
// Visually confusable characters (0/O, 1/I/L) are excluded.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of a session code.
const CodeLength = 6

// CanonicalCode returns the canonical (trimmed, uppercase) form of a
// session code. Lookups are case-insensitive; the canonical form is what is
// stored, compared and hashed into the session key.
func CanonicalCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// ValidCode reports whether code, once canonicalized, is a well-formed
// session code.
func ValidCode(code string) bool {
	c := CanonicalCode(code)
	if len(c) != CodeLength {
		return false
	}
	for _, r := range c {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}
