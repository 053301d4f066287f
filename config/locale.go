package config

import (
	"slices"
	"strings"
)

// LocaleConfig controls locale-prefixed page routing.
type LocaleConfig struct {
	// Supported lists the locale path prefixes, first entry preferred on ties.
	Supported []string `env:"LOCALES" envDefault:"en;sr" envSeparator:";"`

	// Default is used when neither the locale cookie nor Accept-Language match.
	Default string `env:"DEFAULT_LOCALE" envDefault:"en"`

	// CookieName stores an explicit locale choice.
	CookieName string `env:"LOCALE_COOKIE" envDefault:"NEXT_LOCALE"`
}

// Sanitize applies guardrails to locale configuration values.
func (l *LocaleConfig) Sanitize() {
	out := make([]string, 0, len(l.Supported))
	for _, s := range l.Supported {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	l.Supported = out

	l.Default = strings.ToLower(strings.TrimSpace(l.Default))
	if !slices.Contains(l.Supported, l.Default) {
		l.Default = l.Supported[0]
	}
	if l.CookieName == "" {
		l.CookieName = "NEXT_LOCALE"
	}
}
