package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const visitorContextKey contextKey = "visitor"

// VisitorCookieName names the cookie that identifies an anonymous visitor.
const VisitorCookieName = "voluntrip_visitor"

// VisitorOptions configures the visitor cookie.
type VisitorOptions struct {
	TTL    time.Duration // cookie lifetime; zero means one year
	Secure bool
}

// Visitor returns middleware that puts the visitor ID in the request context.
// A missing or malformed cookie is replaced with a fresh UUID. It never blocks
// a request: every visitor gets a saved form.
func Visitor(opts VisitorOptions) func(http.Handler) http.Handler {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(VisitorCookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				SetVisitorCookie(w, id, ttl, opts.Secure)
			}
			next.ServeHTTP(w, r.WithContext(ContextWithVisitor(r.Context(), id)))
		})
	}
}

// VisitorFromContext returns the visitor ID, "" outside the Visitor middleware.
func VisitorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(visitorContextKey).(string)
	return id
}

// ContextWithVisitor returns a context carrying the visitor ID.
// Intended for use in tests and by the Visitor middleware.
func ContextWithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorContextKey, id)
}

// SetVisitorCookie sets the visitor cookie on the response.
func SetVisitorCookie(w http.ResponseWriter, id string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    id,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}
