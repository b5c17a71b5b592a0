// Package middleware provides HTTP middlewares for admin authentication,
// request ids, logging and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atinyakov/travelsite/internal/session"
)

type ctxKey string

const adminKey ctxKey = "admin"

// LoginPath is the only page under /admin reachable without a session.
const LoginPath = "/admin/login"

// Authenticator reports whether a session cookie value is valid.
type Authenticator interface {
	IsAuthenticated(cookieValue string) bool
}

// RequireAdminPage protects admin pages. Requests without a valid session are
// redirected to the login page with 303 See Other; the login page itself is
// always let through.
func RequireAdminPage(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLoginPath(r.URL.Path) {
				next.ServeHTTP(w, r.WithContext(withAdmin(r, auth)))
				return
			}
			if !authenticated(r, auth) {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), adminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminAPI protects the admin JSON API. Requests without a valid
// session get 401 {"error":"Unauthorized"}.
func RequireAdminAPI(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated(r, auth) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			ctx := context.WithValue(r.Context(), adminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdmin reports whether the request context carries a verified admin session.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminKey).(bool)
	return v
}

func authenticated(r *http.Request, auth Authenticator) bool {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return false
	}
	return auth.IsAuthenticated(c.Value)
}

func withAdmin(r *http.Request, auth Authenticator) context.Context {
	return context.WithValue(r.Context(), adminKey, authenticated(r, auth))
}

func isLoginPath(p string) bool {
	return strings.TrimSuffix(p, "/") == LoginPath
}
