package xstrings

import (
	"strings"
	"unicode"
)

// Words lower-cases text and splits it on anything that is not a letter or a
// digit.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Fields splits text on whitespace and trims surrounding punctuation from
// every token, preserving case.
func Fields(text string) []string {
	raw := strings.Fields(text)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ContainsAny reports whether any of the words is in the set.
func ContainsAny(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

// Set builds a membership map.
func Set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
