package domain

import (
	"errors"
	"strings"
)

// Language is a supported summary language. The value is the stable wire
// code used in query strings, session state and the summary column suffix.
type Language string

const (
	EN Language = "en"
	RU Language = "ru"
)

// ErrUnsupportedLanguage is returned when a language code is outside the
// supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var languageNames = map[Language]string{
	EN: "english",
	RU: "russian",
}

// SupportedLanguages returns every language summaries are generated in, in
// generation order.
func SupportedLanguages() []Language { return []Language{EN, RU} }

// ParseLanguage accepts a wire code ("en") or a display name ("english"),
// case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for lang, name := range languageNames {
		if s == string(lang) || s == name {
			return lang, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// Name returns the display name, e.g. "english".
func (l Language) Name() string { return languageNames[l] }

func (l Language) String() string { return string(l) }
