package domain

import "golang.org/x/text/language"

// Language is the LPI/lookup language discriminator.
type Language string

const (
	LanguageEnglish Language = "ENG"
	LanguageWelsh   Language = "CYM"
	LanguageGaelic  Language = "GAE"
)

// IsValid reports whether l is one of the gazetteer languages.
func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageWelsh, LanguageGaelic:
		return true
	}
	return false
}

// Tag maps the gazetteer code to a BCP 47 tag for casing rules.
func (l Language) Tag() language.Tag {
	switch l {
	case LanguageWelsh:
		return language.Make("cy")
	case LanguageGaelic:
		return language.Make("gd")
	default:
		return language.BritishEnglish
	}
}
