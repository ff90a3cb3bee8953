package cms

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no page exists for a slug in any candidate language.
var ErrNotFound = errors.New("cms: not found")

// Page is a localized static page read from markdown with YAML front matter.
type Page struct {
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Icon      string
	Body      string
	HTML      template.HTML
	UpdatedAt time.Time
	Banner    *Banner
	SEO       SEO
}

// SEO holds optional metadata overrides for a page.
type SEO struct {
	Title       string
	Description string
}

// Banner is an optional notice displayed above the body.
type Banner struct {
	Variant string
	Title   string
	Message string
}

type frontMatter struct {
	Title     string             `yaml:"title"`
	Summary   string             `yaml:"summary"`
	Lang      string             `yaml:"lang"`
	Icon      string             `yaml:"icon"`
	UpdatedAt string             `yaml:"updated_at"`
	SEO       frontMatterSEO     `yaml:"seo"`
	Banner    *frontMatterBanner `yaml:"banner"`
}

type frontMatterSEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type frontMatterBanner struct {
	Variant string `yaml:"variant"`
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

const (
	defaultTTL      = 5 * time.Minute
	defaultPagesDir = "pages"
)

// Store reads pages from {root}/pages/{lang}/{slug}.md and keeps rendered
// results for a while.
type Store struct {
	fsys      fs.FS
	fallbacks []string
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithTTL overrides how long rendered pages are cached.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithFallbackLanguages sets the languages tried after the requested one.
func WithFallbackLanguages(langs ...string) Option {
	return func(s *Store) {
		s.fallbacks = lowerSlice(langs)
	}
}

// NewStore serves pages from a content directory on disk.
func NewStore(dir string, opts ...Option) *Store {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "content"
	}
	return NewFSStore(os.DirFS(dir), opts...)
}

// NewFSStore serves pages from fsys.
func NewFSStore(fsys fs.FS, opts ...Option) *Store {
	s := &Store{
		fsys:      fsys,
		fallbacks: []string{"en", "de"},
		ttl:       defaultTTL,
		now:       time.Now,
		items:     map[string]cacheEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetPage returns the page for slug in lang, falling back to the configured
// languages when no translation exists.
func (s *Store) GetPage(ctx context.Context, slug, lang string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	lang = strings.ToLower(strings.TrimSpace(lang))

	key := lang + "|" + slug
	if page, ok := s.cached(key); ok {
		return page, nil
	}
	page, err := s.findPage(slug, lang)
	if err != nil {
		return Page{}, err
	}
	s.store(key, page)
	return clonePage(page), nil
}

func (s *Store) findPage(slug, lang string) (Page, error) {
	priority := make([]string, 0, len(s.fallbacks)+1)
	if lang != "" {
		priority = append(priority, lang)
	}
	for _, fb := range s.fallbacks {
		if fb != lang {
			priority = append(priority, fb)
		}
	}
	for _, candidate := range priority {
		page, err := s.readMarkdown(slug, candidate)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		// parse errors stop the search
		return Page{}, err
	}
	return Page{}, ErrNotFound
}

func (s *Store) readMarkdown(slug, lang string) (Page, error) {
	name := path.Join(defaultPagesDir, lang, slug+".md")
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("cms: parse front matter %s: %w", name, err)
		}
	}
	rendered, err := RenderMarkdown(body)
	if err != nil {
		return Page{}, fmt.Errorf("cms: render %s: %w", name, err)
	}
	page := Page{
		Slug:    slug,
		Lang:    firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		Icon:    strings.TrimSpace(front.Icon),
		Body:    body,
		HTML:    rendered,
		SEO: SEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
		},
	}
	if front.Banner != nil {
		page.Banner = &Banner{
			Variant: strings.TrimSpace(front.Banner.Variant),
			Title:   strings.TrimSpace(front.Banner.Title),
			Message: strings.TrimSpace(front.Banner.Message),
		}
	}
	page.UpdatedAt = parseContentDate(front.UpdatedAt)
	if page.UpdatedAt.IsZero() {
		if info, err := fs.Stat(s.fsys, name); err == nil {
			page.UpdatedAt = info.ModTime()
		}
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"02.01.2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return slug
	}
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = asciiUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func (s *Store) cached(key string) (Page, bool) {
	now := s.now()
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || now.After(entry.expires) {
		return Page{}, false
	}
	return clonePage(entry.page), true
}

func (s *Store) store(key string, page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = cacheEntry{
		page:    clonePage(page),
		expires: s.now().Add(s.ttl),
	}
}

func clonePage(src Page) Page {
	cp := src
	if src.Banner != nil {
		b := *src.Banner
		cp.Banner = &b
	}
	return cp
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func lowerSlice(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
