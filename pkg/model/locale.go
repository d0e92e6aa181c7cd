package model

import (
	"fmt"
	"strings"
	"time"
)

// Locale is a supported display language.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleFR
)

// Locales lists the supported display languages.
var Locales = []Locale{LocaleFR, LocaleEN}

// ParseLocale accepts language tags such as "en", "en-US" or "fr_FR" and
// falls back to DefaultLocale for anything unsupported.
func ParseLocale(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	for _, l := range Locales {
		if string(l) == s {
			return l
		}
	}
	return DefaultLocale
}

var monthNames = map[Locale][12]string{
	LocaleFR: {"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	LocaleEN: {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// FormatDate renders t as a long date ("2 janvier 2025", "January 2, 2025").
func (l Locale) FormatDate(t time.Time) string {
	names, ok := monthNames[l]
	if !ok {
		names = monthNames[DefaultLocale]
		l = DefaultLocale
	}
	month := names[t.Month()-1]

	if l == LocaleEN {
		return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year())
	}
	return fmt.Sprintf("%d %s %d", t.Day(), month, t.Year())
}
