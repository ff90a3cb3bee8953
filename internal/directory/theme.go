package directory

import (
	"fmt"
	"regexp"
	"strings"
)

// Theme holds the Tailwind color tokens used to style a profile.
type Theme struct {
	ColorDark    string `json:"colorDark"`
	GradientFrom string `json:"gradientFrom"`
	GradientTo   string `json:"gradientTo"`
	BgGradient   string `json:"bgGradient"`
	TextColor    string `json:"textColor"`
	ButtonColor  string `json:"buttonColor"`
	ButtonHover  string `json:"buttonHover"`
}

var (
	colorFamilies = map[string]struct{}{
		"slate": {}, "gray": {}, "zinc": {}, "neutral": {}, "stone": {},
		"red": {}, "orange": {}, "amber": {}, "yellow": {}, "lime": {},
		"green": {}, "emerald": {}, "teal": {}, "cyan": {}, "sky": {},
		"blue": {}, "indigo": {}, "violet": {}, "purple": {}, "fuchsia": {},
		"pink": {}, "rose": {},
	}
	colorShades = map[string]struct{}{
		"50": {}, "100": {}, "200": {}, "300": {}, "400": {}, "500": {},
		"600": {}, "700": {}, "800": {}, "900": {}, "950": {},
	}
	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidColorToken reports whether token is a "<family>-<shade>" Tailwind color.
func ValidColorToken(token string) bool {
	family, shade, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	if _, ok := colorFamilies[family]; !ok {
		return false
	}
	_, ok = colorShades[shade]
	return ok
}

// Validate checks every token against the closed Tailwind palette. The error
// wraps ErrInvalidTheme and names the first offending field.
func (t Theme) Validate() error {
	if !hexColor.MatchString(t.ColorDark) {
		return fmt.Errorf("%w: colorDark %q is not #rrggbb", ErrInvalidTheme, t.ColorDark)
	}
	tokens := []struct {
		field string
		value string
	}{
		{"gradientFrom", t.GradientFrom},
		{"gradientTo", t.GradientTo},
		{"textColor", t.TextColor},
		{"buttonColor", t.ButtonColor},
		{"buttonHover", t.ButtonHover},
	}
	for _, tok := range tokens {
		if !ValidColorToken(tok.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidTheme, tok.field, tok.value)
		}
	}
	from, to, err := t.bgGradientTokens()
	if err != nil {
		return err
	}
	if !ValidColorToken(from) || !ValidColorToken(to) {
		return fmt.Errorf("%w: bgGradient %q", ErrInvalidTheme, t.BgGradient)
	}
	return nil
}

// BgFrom returns the first color token of the background gradient, used for hover states.
func (t Theme) BgFrom() string {
	from, _, err := t.bgGradientTokens()
	if err != nil {
		return ""
	}
	return from
}

func (t Theme) bgGradientTokens() (string, string, error) {
	fields := strings.Fields(t.BgGradient)
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "from-") || !strings.HasPrefix(fields[1], "to-") {
		return "", "", fmt.Errorf("%w: bgGradient %q must be \"from-<token> to-<token>\"", ErrInvalidTheme, t.BgGradient)
	}
	return strings.TrimPrefix(fields[0], "from-"), strings.TrimPrefix(fields[1], "to-"), nil
}
