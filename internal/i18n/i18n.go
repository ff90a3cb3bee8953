package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

var errNoLanguages = errors.New("i18n: no languages loaded")

// Bundle serves the strings of translations.json.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	tags      []language.Tag
	matcher   language.Matcher
}

// New builds a bundle over translations (language -> key -> text). The
// fallback language must be present.
func New(translations map[string]map[string]string, fallback string) (*Bundle, error) {
	if len(translations) == 0 {
		return nil, errNoLanguages
	}
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	b := &Bundle{
		dict:     make(map[string]map[string]string, len(translations)),
		fallback: fallback,
	}
	for lang, table := range translations {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("i18n: invalid language %q: %w", lang, err)
		}
		copied := make(map[string]string, len(table))
		for k, v := range table {
			copied[k] = v
		}
		b.dict[lang] = copied
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback language %s not loaded", fallback)
	}

	// The matcher treats its first tag as the default.
	b.supported = append(b.supported, fallback)
	rest := make([]string, 0, len(b.dict)-1)
	for lang := range b.dict {
		if lang != fallback {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	b.supported = append(b.supported, rest...)
	for _, lang := range b.supported {
		b.tags = append(b.tags, language.MustParse(lang))
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Supported returns the loaded languages in sorted order.
func (b *Bundle) Supported() []string {
	out := append([]string(nil), b.supported...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// Has reports whether lang has a translation table.
func (b *Bundle) Has(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}

// Normalize lower-cases lang and reports whether it is supported.
func (b *Bundle) Normalize(lang string) (string, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang, b.Has(lang)
}

// T returns the translation for key in lang, or key itself when the table has
// no entry. Unsupported languages read from the fallback table.
func (b *Bundle) T(lang, key string) string {
	if !b.Has(lang) {
		lang = b.fallback
	}
	if v := b.dict[lang][key]; v != "" {
		return v
	}
	return key
}

// Resolve picks the best supported language from an Accept-Language header,
// honouring q-values. Anything that does not match falls back, so
// "de-CH" resolves to de, "th" to th and "fr" to the fallback.
func (b *Bundle) Resolve(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, index, confidence := b.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(b.supported) {
		return b.fallback
	}
	return b.supported[index]
}
