package auth

import (
	"context"
	"net/http"

	"github.com/sakif/secrets/internal/model"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

// contextKey is unexported so only this package can read or write its values.
type contextKey string

const userKey contextKey = "user"

// UserResolver turns a session cookie value into the signed-in user.
// It reports false for anything short of a live session and an existing user.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*model.User, bool)
}

// Sessions loads the signed-in user, if any, into the request context.
// It never blocks a request; anonymous visitors pass straight through.
func Sessions(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				if user, ok := resolver.CurrentUser(r.Context(), c.Value); ok {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser redirects anonymous requests to loginPath. It must run after Sessions.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the signed-in user, or (nil, false) for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// SetSessionCookie stores token in the browser for maxAgeSeconds.
//
// HttpOnly keeps it away from page scripts; SameSite=Lax still sends it on the
// top-level redirect back from Google.
func SetSessionCookie(w http.ResponseWriter, token string, maxAgeSeconds int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
