package domain

import (
	"fmt"
	"strings"
)

type ThemePreference string

const (
	ThemeLight  ThemePreference = "light"
	ThemeDark   ThemePreference = "dark"
	ThemeSystem ThemePreference = "system"
)

func ParseThemePreference(raw string) (ThemePreference, error) {
	switch pref := ThemePreference(strings.ToLower(strings.TrimSpace(raw))); pref {
	case ThemeLight, ThemeDark, ThemeSystem:
		return pref, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse theme", fmt.Errorf("unknown theme %q", raw))
	}
}

// Resolve maps the preference to the concrete theme given the platform preference.
func (p ThemePreference) Resolve(systemDark bool) ThemePreference {
	if p != ThemeSystem {
		return p
	}
	if systemDark {
		return ThemeDark
	}
	return ThemeLight
}
