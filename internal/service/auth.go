// Package service provides the business logic of the admin gate and the
// package catalog, delegating persistence to repositories.
package service

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/travelsite/internal/session"
)

var (
	// ErrConfiguration is returned when the admin password or session secret is not set.
	ErrConfiguration = errors.New("admin login is not configured")
	// ErrInvalidCredentials is returned when the supplied password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenCodec issues and checks session tokens.
type TokenCodec interface {
	Create(now time.Time) (string, error)
	Verify(token string, now time.Time) (bool, error)
}

// AuthService implements the admin login gate on top of a TokenCodec.
type AuthService struct {
	password string
	codec    TokenCodec
	secure   bool
	now      func() time.Time
}

// NewAuthService constructs an AuthService. secure sets the Secure attribute
// of issued cookies.
func NewAuthService(password string, codec TokenCodec, secure bool) *AuthService {
	return &AuthService{
		password: password,
		codec:    codec,
		secure:   secure,
		now:      time.Now,
	}
}

// IsAuthenticated reports whether cookieValue holds a valid session token.
// Any verification error counts as unauthenticated.
func (s *AuthService) IsAuthenticated(cookieValue string) bool {
	if cookieValue == "" || s.codec == nil {
		return false
	}
	ok, err := s.codec.Verify(cookieValue, s.now())
	if err != nil {
		return false
	}
	return ok
}

// Login checks password and returns the session cookie to set.
func (s *AuthService) Login(password string) (*http.Cookie, error) {
	if s.password == "" || s.codec == nil {
		return nil, ErrConfiguration
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	token, err := s.codec.Create(s.now())
	if err != nil {
		if errors.Is(err, session.ErrMissingSecret) {
			return nil, ErrConfiguration
		}
		return nil, err
	}

	c := s.cookie(token)
	c.MaxAge = int(session.Duration / time.Second)
	return c, nil
}

// Logout returns a cookie that clears the session.
func (s *AuthService) Logout() *http.Cookie {
	c := s.cookie("")
	c.MaxAge = -1
	return c
}

func (s *AuthService) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
