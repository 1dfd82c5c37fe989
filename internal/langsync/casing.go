package langsync

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase upper-cases the first letter of every word: "HIGH STREET" -> "High Street".
func TitleCase(s string, tag language.Tag) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(tag).String(s)
}

// SentenceCase upper-cases only the first letter: "ST DAVIDS" -> "St davids".
func SentenceCase(s string, tag language.Tag) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := cases.Lower(tag).String(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
