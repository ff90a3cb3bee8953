package middleware

import (
	"net/http"

	"github.com/stefan-ffr/mueller/internal/i18n"
)

const langCookieName = "lang"

// Locale resolves the preferred language and stores it in the session.
// Order: ?lang= query, session, `lang` cookie, Accept-Language. Unsupported
// values are ignored.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(withLocaleFallback(r.Context(), bundle.Fallback()))
			s := GetSession(r)

			if q, ok := bundle.Normalize(r.URL.Query().Get("lang")); ok {
				if s.Lang != q {
					s.Lang = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{Name: langCookieName, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if !bundle.Has(s.Lang) {
				// cookie or Accept-Language
				if c, err := r.Cookie(langCookieName); err == nil {
					if lang, ok := bundle.Normalize(c.Value); ok {
						s.Lang = lang
					}
				}
				if !bundle.Has(s.Lang) {
					s.Lang = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Lang)
			next.ServeHTTP(w, r)
		})
	}
}
