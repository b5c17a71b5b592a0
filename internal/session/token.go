// Package session creates and verifies the signed, expiring admin session token.
//
// A token has the form
//
//	v1.<expiresAtUnixMillis>.<signature>
//
// where signature is the unpadded base64url HMAC-SHA256 of "v1.<expiresAtUnixMillis>".
// Tokens are not stored server-side; validity is recomputed from the key.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// CookieName is the name of the admin session cookie.
	CookieName = "admin_session"
	// Duration is the lifetime of a session token.
	Duration = 12 * time.Hour
	// Version is the only accepted token version.
	Version = "v1"
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("session secret is not configured")

// KeyHolder owns the signing key material. It is created once at startup.
type KeyHolder struct {
	key []byte
}

// NewKeyHolder returns a KeyHolder for secret, or ErrMissingSecret if it is empty.
func NewKeyHolder(secret string) (*KeyHolder, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &KeyHolder{key: []byte(secret)}, nil
}

func (k *KeyHolder) sign(payload string) (string, error) {
	if k == nil || len(k.key) == 0 {
		return "", ErrMissingSecret
	}
	mac := hmac.New(sha256.New, k.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Codec issues and checks session tokens.
type Codec struct {
	keys *KeyHolder
}

// NewCodec returns a Codec signing with keys.
func NewCodec(keys *KeyHolder) *Codec {
	return &Codec{keys: keys}
}

// Create returns a token that expires Duration after now.
func (c *Codec) Create(now time.Time) (string, error) {
	if c == nil {
		return "", ErrMissingSecret
	}
	expiresAt := now.Add(Duration).UnixMilli()
	payload := Version + "." + strconv.FormatInt(expiresAt, 10)
	sig, err := c.keys.sign(payload)
	if err != nil {
		return "", err
	}
	return payload + "." + sig, nil
}

// Verify reports whether token is well formed, unexpired at now and correctly signed.
// The error is non-nil only when no secret is configured; callers must treat it as false.
func (c *Codec) Verify(token string, now time.Time) (bool, error) {
	if c == nil {
		return false, ErrMissingSecret
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false, nil
	}
	version, expiresRaw, sig := parts[0], parts[1], parts[2]
	if version == "" || expiresRaw == "" || sig == "" {
		return false, nil
	}
	if version != Version {
		return false, nil
	}

	expiresAt, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil || expiresAt <= now.UnixMilli() {
		return false, nil
	}

	expected, err := c.keys.sign(version + "." + expiresRaw)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(sig), []byte(expected)), nil
}
