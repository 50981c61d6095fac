package utils

import (
	"strings"
	"unicode"
)

// Tidy collapses every whitespace run to a single space and trims the ends.
func Tidy(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// FirstTokens keeps the first n whitespace-delimited tokens.
func FirstTokens(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest ("hot tools" -> "Hot Tools", "ABC-DEF" -> "Abc-Def").
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// IsUpper reports whether s has at least one cased letter and no lower-case
// ones ("ABC1" yes, "123" no).
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// IsTitle reports whether every upper-case letter starts a word and every
// lower-case letter continues one ("Sony" yes, "WH-1000XM4" no).
func IsTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
