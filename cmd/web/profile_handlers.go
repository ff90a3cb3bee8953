package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/handlers"
	mw "github.com/stefan-ffr/mueller/internal/middleware"
	"github.com/stefan-ffr/mueller/internal/observability"
	"github.com/stefan-ffr/mueller/internal/qr"
	"github.com/stefan-ffr/mueller/internal/seo"
	"github.com/stefan-ffr/mueller/internal/vcard"
)

// handleIndex lists the family members followed by the tiles.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	lang := mw.Lang(r)
	title := s.bundle.T(lang, "site_title")
	data := handlers.BuildPageData(s.layout(r), title, "")

	people, err := s.loader.LoadAllPeople(r.Context())
	if err != nil {
		logger.Error("load people failed", zap.Error(err))
		s.views.render(w, r, "index", http.StatusServiceUnavailable, data.WithError("members_load_error"))
		return
	}
	if len(people) == 0 {
		s.views.render(w, r, "index", http.StatusOK, data.WithError("no_members"))
		return
	}
	tiles, err := s.loader.LoadAllTiles(r.Context())
	if err != nil {
		// tiles are optional decoration
		logger.Warn("load tiles failed", zap.Error(err))
	}

	data.Index = handlers.BuildIndex(people, tiles, lang, s.bundle.Fallback())
	data.JSONLD = append(data.JSONLD, seo.JSON(seo.WebSite(title, s.baseURL(r)+"/")))
	s.views.render(w, r, "index", http.StatusOK, data)
}

func (s *server) handleProfileQuery(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, strings.TrimSpace(r.URL.Query().Get("person")))
}

func (s *server) handleProfilePath(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, chi.URLParam(r, "id"))
}

// renderProfile shows header, quick contacts, country cards, QR codes and
// download buttons for one person.
func (s *server) renderProfile(w http.ResponseWriter, r *http.Request, id string) {
	lang := mw.Lang(r)
	data := handlers.BuildPageData(s.layout(r), s.bundle.T(lang, "site_title"), "")

	p, status, msgKey := s.loadPerson(r, id)
	if p == nil {
		s.views.render(w, r, "profile", status, data.WithError(msgKey))
		return
	}

	pageURL := s.profileURL(r, p.ID)
	slots := s.qr.ProfileQRCodes(p, pageURL)

	data = handlers.BuildPageData(s.layout(r), p.FullName+" - Kontakt", p.FullName)
	data.SEO.Canonical = s.baseURL(r) + "/p/" + url.PathEscape(p.ID)
	data.SEO.OG.URL = data.SEO.Canonical
	data.BodyClass = "bg-gradient-to-br " + p.Theme.BgGradient + " min-h-screen"
	data.Profile = handlers.BuildProfile(p, slots, lang)
	data.JSONLD = append(data.JSONLD,
		seo.JSON(seo.Person(p, pageURL)),
		data.BreadcrumbSchema(s.baseURL(r), func(key string) string { return s.bundle.T(lang, key) }),
	)
	s.views.render(w, r, "profile", http.StatusOK, data)
}

// handleBusinessCard renders a printable card, one side per country.
func (s *server) handleBusinessCard(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	data := handlers.BuildPageData(s.layout(r), s.bundle.T(lang, "print_card"), "")

	p, status, msgKey := s.loadPerson(r, strings.TrimSpace(r.URL.Query().Get("person")))
	if p == nil {
		s.views.render(w, r, "card", status, data.WithError(msgKey))
		return
	}

	countries := handlers.CardCountries(p, r.URL.Query().Get("country"))
	slots := make([]qr.Slot, 0, len(countries))
	for _, c := range countries {
		code := strings.ToLower(c.Code)
		slots = append(slots, s.qr.Generate("card-"+code, vcard.GenerateForQR(p, c.Code), p.Theme.ColorDark))
	}

	data = handlers.BuildPageData(s.layout(r), p.FullName+" - "+s.bundle.T(lang, "print_card"), p.FullName)
	data.BodyClass = "bg-white"
	data.Card = handlers.BuildCard(p, countries, slots)
	s.views.render(w, r, "card", http.StatusOK, data)
}

// loadPerson maps load failures to a status and a translation key.
func (s *server) loadPerson(r *http.Request, id string) (*directory.Person, int, string) {
	if id == "" {
		return nil, http.StatusNotFound, "person_not_found"
	}
	p, err := s.loader.LoadPerson(r.Context(), id)
	if err == nil {
		return p, http.StatusOK, ""
	}
	logger := observability.FromContext(r.Context())
	if directory.IsNotFound(err) {
		logger.Info("person not found", zap.String("person", id))
		return nil, http.StatusNotFound, "person_not_found"
	}
	logger.Error("load person failed", zap.String("person", id), zap.Error(err))
	if errors.Is(err, directory.ErrInvalidTheme) || errors.Is(err, directory.ErrUnresolvedReference) {
		return nil, http.StatusInternalServerError, "profile_load_error"
	}
	return nil, http.StatusBadGateway, "profile_load_error"
}

func (s *server) layout(r *http.Request) handlers.Layout {
	return handlers.Layout{
		Lang:      mw.Lang(r),
		URL:       r.URL,
		Languages: s.bundle.Supported(),
		BaseURL:   s.baseURL(r),
	}
}

// baseURL is the configured public origin, or the one the request came in on.
func (s *server) baseURL(r *http.Request) string {
	if s.cfg.Server.PublicURL != "" {
		return s.cfg.Server.PublicURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// profileURL is what the link QR code encodes.
func (s *server) profileURL(r *http.Request, id string) string {
	return s.baseURL(r) + "/profile?person=" + url.QueryEscape(id)
}
