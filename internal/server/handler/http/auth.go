// Package http provides the HTTP handlers and routing of the travel
// catalog service: admin login, the admin package API and the public
// listing documents.
package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/travelsite/internal/middleware"
	"github.com/atinyakov/travelsite/internal/service"
)

// AuthService defines the session operations required by the HTTP handlers.
type AuthService interface {
	// IsAuthenticated reports whether a session cookie value is valid.
	IsAuthenticated(cookieValue string) bool
	// Login checks the password and returns the session cookie to set.
	Login(password string) (*http.Cookie, error)
	// Logout returns a cookie that clears the session.
	Logout() *http.Cookie
}

// Login error codes carried in the ?error= query of the login page.
const (
	LoginErrorInvalid = "invalid"
	LoginErrorConfig  = "config"
)

var loginMessages = map[string]string{
	LoginErrorInvalid: "Invalid password. Please try again.",
	LoginErrorConfig:  "Admin login is not configured.",
}

// AuthHandler handles the admin login page and the login/logout actions.
type AuthHandler struct {
	// AuthService performs the underlying session operations.
	AuthService AuthService
	Log         *zap.Logger
}

// LoginState is the document served at GET /admin/login.
type LoginState struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// LoginPage describes the login form state. An already authenticated
// admin is sent on to the package admin page.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAdmin(r.Context()) {
		http.Redirect(w, r, service.AdminCatalogPath, http.StatusSeeOther)
		return
	}

	var state LoginState
	code := r.URL.Query().Get("error")
	if msg, ok := loginMessages[code]; ok {
		state = LoginState{Error: code, Message: msg}
	}
	writeJSON(w, http.StatusOK, state)
}

// Login handles the login form. It always answers with 303 See Other:
// to the admin page on success, back to the login page with an error code
// otherwise.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, LoginErrorInvalid)
		return
	}
	if _, ok := r.PostForm["password"]; !ok {
		h.loginFailed(w, r, LoginErrorInvalid)
		return
	}

	cookie, err := h.AuthService.Login(r.PostForm.Get("password"))
	switch {
	case err == nil:
		http.SetCookie(w, cookie)
		http.Redirect(w, r, service.AdminCatalogPath, http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.loginFailed(w, r, LoginErrorInvalid)
	case errors.Is(err, service.ErrConfiguration):
		h.loginFailed(w, r, LoginErrorConfig)
	default:
		if h.Log != nil {
			h.Log.Error("failed to create admin session", zap.Error(err))
		}
		h.loginFailed(w, r, LoginErrorConfig)
	}
}

// Logout clears the session cookie and returns to the home page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.AuthService.Logout())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, middleware.LoginPath+"?error="+code, http.StatusSeeOther)
}
