package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/cms"
	"github.com/stefan-ffr/mueller/internal/handlers"
	mw "github.com/stefan-ffr/mueller/internal/middleware"
	"github.com/stefan-ffr/mueller/internal/observability"
)

// handleContentPage renders a markdown page. Internal tiles link here.
func (s *server) handleContentPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	page, err := s.pages.GetPage(r.Context(), chi.URLParam(r, "slug"), lang)
	if err != nil {
		data := handlers.BuildPageData(s.layout(r), s.bundle.T(lang, "site_title"), "")
		if errors.Is(err, cms.ErrNotFound) {
			s.views.render(w, r, "content", http.StatusNotFound, data.WithError("page_not_found"))
			return
		}
		observability.FromContext(r.Context()).Error("load content page failed", zap.Error(err))
		s.views.render(w, r, "content", http.StatusInternalServerError, data.WithError("page_load_error"))
		return
	}

	etag := contentETag(page)
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.Header().Set("ETag", etag)
	if !page.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", page.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data := handlers.BuildPageData(s.layout(r), page.Title, page.Title)
	if page.SEO.Title != "" {
		data.SEO.Title = page.SEO.Title
		data.SEO.OG.Title = page.SEO.Title
	}
	data.SEO.Description = firstNonEmpty(page.SEO.Description, page.Summary)
	data.SEO.OG.Description = data.SEO.Description
	data.Content = page
	data.JSONLD = append(data.JSONLD, data.BreadcrumbSchema(s.baseURL(r), func(key string) string { return s.bundle.T(lang, key) }))
	s.views.render(w, r, "content", http.StatusOK, data)
}

func contentETag(page cms.Page) string {
	h := sha256.New()
	h.Write([]byte(page.Lang))
	h.Write([]byte{0})
	h.Write([]byte(page.HTML))
	h.Write([]byte{0})
	h.Write([]byte(page.UpdatedAt.UTC().Format(time.RFC3339)))
	return `W/"` + hex.EncodeToString(h.Sum(nil)[:12]) + `"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
