package handlers

import (
	"html/template"
	"net/url"

	"github.com/stefan-ffr/mueller/internal/nav"
	"github.com/stefan-ffr/mueller/internal/seo"
)

// PageData is the view model every page hands to the shared layout.
type PageData struct {
	Title string
	Lang  string
	SEO   seo.Meta

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Languages   []nav.LangOption
	JSONLD      []template.JS

	// BodyClass carries the person's background gradient on themed pages.
	BodyClass string
	Error     *ErrorBanner

	// Optional per-page view model payloads
	Index   *IndexView
	Profile *ProfileView
	Card    *CardView
	Content any
}

// ErrorBanner is the red alert shown in place of page content.
type ErrorBanner struct {
	TitleKey   string
	MessageKey string
}

// Layout describes the request a page is built for.
type Layout struct {
	Lang      string
	URL       *url.URL
	Languages []string
	// BaseURL is the absolute origin used for canonical links.
	BaseURL string
}

// Canonical returns the absolute URL of path.
func (l Layout) Canonical(path string) string {
	return l.BaseURL + path
}

// BuildPageData fills the layout fields shared by all pages.
func BuildPageData(l Layout, title, leaf string) PageData {
	path := "/"
	if l.URL != nil && l.URL.Path != "" {
		path = l.URL.Path
	}
	languages := nav.LanguageSwitcher(l.URL, l.Languages, l.Lang)
	hrefs := make(map[string]string, len(languages))
	for _, opt := range languages {
		hrefs[opt.Code] = opt.Href
	}
	meta := seo.NewMeta(title, "", l.Canonical(path), "").
		WithAlternates(l.Languages, func(lang string) string { return l.BaseURL + hrefs[lang] })
	return PageData{
		Title:       title,
		Lang:        l.Lang,
		SEO:         meta,
		Path:        path,
		Nav:         nav.Build(path),
		Breadcrumbs: nav.Breadcrumbs(path, leaf),
		Languages:   languages,
		BodyClass:   "bg-gradient-to-br from-slate-100 to-slate-200 min-h-screen",
	}
}

// BreadcrumbSchema returns the breadcrumbs as schema.org JSON-LD. label
// translates crumbs that carry a key.
func (p PageData) BreadcrumbSchema(baseURL string, label func(key string) string) template.JS {
	items := make([]seo.BreadcrumbItem, 0, len(p.Breadcrumbs))
	for _, c := range p.Breadcrumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = label(c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: baseURL + c.Href})
	}
	return seo.JSON(seo.BreadcrumbList(items))
}

// WithError replaces the page content by an error banner.
func (p PageData) WithError(messageKey string) PageData {
	p.Error = &ErrorBanner{TitleKey: "error", MessageKey: messageKey}
	return p
}
