package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stefan-ffr/mueller/internal/i18n"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.New(map[string]map[string]string{
		"de": {"title": "Familie"},
		"en": {"title": "Family"},
		"th": {"title": "ครอบครัว"},
	}, "en")
	require.NoError(t, err)
	return b
}

func langHandler(t *testing.T) http.Handler {
	store := NewSessionStore("test-key", false, nil)
	return store.Middleware(Locale(testBundle(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Lang(r)))
	})))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	h := langHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-CH,de;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "de", rec.Body.String())
	require.Equal(t, "de", rec.Header().Get("Content-Language"))
	require.NotNil(t, sessionCookie(rec))
}

func TestLocaleQueryOverridePersists(t *testing.T) {
	h := langHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/?lang=TH", nil)
	req.Header.Set("Accept-Language", "de")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "th", rec.Body.String())

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.Header.Set("Accept-Language", "de")
	next.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, next)
	require.Equal(t, "th", rec.Body.String(), "session wins over Accept-Language")
	require.Nil(t, sessionCookie(rec), "unchanged sessions are not rewritten")
}

func TestLocaleIgnoresUnsupportedQuery(t *testing.T) {
	h := langHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/?lang=fr", nil)
	req.Header.Set("Accept-Language", "th")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "th", rec.Body.String())
}

func TestLocaleFromLangCookie(t *testing.T) {
	h := langHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "de", rec.Body.String())
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	store := NewSessionStore("test-key", false, nil)
	other := NewSessionStore("other-key", false, nil)

	sd := &SessionData{ID: "01HZX3Q3Y8K2J5M6N7P8Q9R0ST", Lang: "th"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: other.encode(sd)})
	_, ok := store.read(req)
	require.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: store.encode(sd)})
	got, ok := store.read(req)
	require.True(t, ok)
	require.Equal(t, "th", got.Lang)
}

func TestAssetsWithCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644))

	h := AssetsWithCache(dir, "/assets", false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/assets/app.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	AssetsWithCache(dir, "/assets", true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("ETag"))
}

func TestWriteErrorNegotiates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/qr/x/link.png", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusNotFound, "not found")
	require.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "not found")
	require.Equal(t, "not found\n", rec.Body.String())
}
