package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser performs Unicode-aware case folding for the name-inference
// matching spec.md §9 requires ("all substring name inference is
// case-insensitive"). Using golang.org/x/text/cases instead of
// strings.ToLower handles locale-independent folding correctly (e.g. the
// Turkish dotless-i problem that a bare ToLower mishandles).
var foldCaser = cases.Fold()

// fold case-folds s for comparison.
func fold(s string) string {
	return foldCaser.String(s)
}

// NameContains reports whether name contains needle as a case-insensitive
// substring (spec.md §4.4 "case-insensitive substring matching on name").
func NameContains(name, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(fold(name), fold(needle))
}

// NameContainsAny reports whether name contains any of needles as a
// case-insensitive substring.
func NameContainsAny(name string, needles []string) bool {
	for _, n := range needles {
		if NameContains(name, n) {
			return true
		}
	}
	return false
}

// NameHasToken reports whether name contains token as a whole word/token,
// not merely as a substring of a longer word. Spec.md §9: "The A/P / A/R
// alternates must be matched as full tokens, not substrings of longer
// words." Tokens are split on anything that isn't a letter, digit, or
// internal slash, so "A/P" matches "A/P Summary" but not "CAP" or "SNAP".
func NameHasToken(name, token string) bool {
	foldedToken := fold(token)
	for _, word := range splitTokens(name) {
		if fold(word) == foldedToken {
			return true
		}
	}
	return false
}

func splitTokens(s string) []string {
	isSep := func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '/':
			return false
		default:
			return true
		}
	}
	return strings.FieldsFunc(s, isSep)
}

// NameHasAnyToken reports whether name contains any of tokens as a whole
// token (see NameHasToken).
func NameHasAnyToken(name string, tokens []string) bool {
	for _, t := range tokens {
		if NameHasToken(name, t) {
			return true
		}
	}
	return false
}

// NameHasPrefix reports whether name starts with prefix, case-insensitively.
func NameHasPrefix(name, prefix string) bool {
	foldedName := fold(name)
	foldedPrefix := fold(prefix)
	return strings.HasPrefix(foldedName, foldedPrefix)
}

// NameHasAnyPrefix reports whether name starts with any of prefixes,
// case-insensitively.
func NameHasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if NameHasPrefix(name, p) {
			return true
		}
	}
	return false
}
