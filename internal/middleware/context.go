package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeySession  ctxKey = "session"
	ctxKeyLocaleFB ctxKey = "locale_fallback"
)

// withLocaleFallback makes the bundle fallback visible to Lang.
func withLocaleFallback(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyLocaleFB, lang)
}

func localeFallback(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyLocaleFB).(string); ok {
		return v
	}
	return ""
}
