package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mw "github.com/stefan-ffr/mueller/internal/middleware"
	"github.com/stefan-ffr/mueller/internal/observability"
	"github.com/stefan-ffr/mueller/internal/qr"
	"github.com/stefan-ffr/mueller/internal/vcard"
)

// handleVCard downloads the person's vCard, optionally for one country.
func (s *server) handleVCard(w http.ResponseWriter, r *http.Request) {
	p, status, _ := s.loadPerson(r, chi.URLParam(r, "id"))
	if p == nil {
		mw.WriteError(w, r, status, http.StatusText(status))
		return
	}
	country := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("country")))
	if err := vcard.Write(w, p, country); err != nil {
		observability.FromContext(r.Context()).Warn("write vcard failed", zap.String("person", p.ID), zap.Error(err))
	}
}

// handleQR serves a single profile QR slot as PNG.
func (s *server) handleQR(w http.ResponseWriter, r *http.Request) {
	p, status, _ := s.loadPerson(r, chi.URLParam(r, "id"))
	if p == nil {
		mw.WriteError(w, r, status, http.StatusText(status))
		return
	}
	plan, ok := qr.FindSlot(p, s.profileURL(r, p.ID), chi.URLParam(r, "slot"))
	if !ok {
		mw.WriteError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	slot := s.qr.Generate(plan.ID, plan.Data, p.Theme.ColorDark)
	if !slot.OK() {
		mw.WriteError(w, r, http.StatusInternalServerError, s.bundle.T(mw.Lang(r), slot.ErrorKey))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(slot.PNG)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(slot.PNG)
}
