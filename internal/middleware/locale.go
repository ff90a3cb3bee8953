package middleware

import "net/http"

// VaryLocale sets Vary header for Accept-Language and Cookie on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// append to existing Vary if any
		w.Header().Add("Vary", "Accept-Language")
		w.Header().Add("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}

// Lang returns current lang from session, else the bundle fallback, else "en".
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Lang != "" {
		return s.Lang
	}
	if fb := localeFallback(r.Context()); fb != "" {
		return fb
	}
	return "en"
}
