package seo

import "strings"

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

// Alternate is an hreflang link to the same page in another language.
type Alternate struct {
	Href     string
	Hreflang string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Alternates  []Alternate
}

// NewMeta fills the Open Graph fields from title and description. Family
// pages are not meant for search engines, so robots defaults to noindex.
func NewMeta(title, description, canonical, siteName string) Meta {
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		Robots:      "noindex, nofollow",
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Type:        "profile",
			URL:         canonical,
			SiteName:    siteName,
		},
	}
}

// WithAlternates adds one alternate link per language. link builds the URL
// for a language.
func (m Meta) WithAlternates(langs []string, link func(lang string) string) Meta {
	m.Alternates = make([]Alternate, 0, len(langs))
	for _, lang := range langs {
		href := strings.TrimSpace(link(lang))
		if href == "" {
			continue
		}
		m.Alternates = append(m.Alternates, Alternate{Href: href, Hreflang: lang})
	}
	return m
}
