package nav

import (
	"net/url"
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/pages/about"
	LabelKey string // i18n key, e.g. "nav_about"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// LangOption is one entry of the language switcher.
type LangOption struct {
	Code   string
	Label  string
	Href   string
	Active bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav_family"},
	{Path: "/pages/about", LabelKey: "nav_about"},
}

// languageLabels are shown in their own language.
var languageLabels = map[string]string{
	"de": "Deutsch",
	"en": "English",
	"th": "ไทย",
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// LanguageSwitcher links the current URL in every supported language. The
// other query parameters (person, country) are kept.
func LanguageSwitcher(current *url.URL, langs []string, active string) []LangOption {
	out := make([]LangOption, 0, len(langs))
	for _, code := range langs {
		href := "/?lang=" + url.QueryEscape(code)
		if current != nil {
			u := *current
			q := u.Query()
			q.Set("lang", code)
			u.RawQuery = q.Encode()
			u.Scheme, u.Host, u.User = "", "", nil
			href = u.RequestURI()
		}
		label := languageLabels[code]
		if label == "" {
			label = strings.ToUpper(code)
		}
		out = append(out, LangOption{Code: code, Label: label, Href: href, Active: code == active})
	}
	return out
}

// Breadcrumbs builds breadcrumb entries from the current path. The first
// crumb always leads back to the family overview. leaf, when set, labels
// the last crumb (a person's name or a page title).
func Breadcrumbs(currentPath, leaf string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "back_to_overview", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	last := parts[len(parts)-1]
	label := leaf
	if label == "" {
		label = titleFromSegment(last)
	}
	return append(crumbs, Crumb{Href: clean, Label: label, Active: true})
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = toUpper(r[0])
	return string(r)
}

func toUpper(r rune) rune {
	// ASCII only is sufficient for slugs here
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
