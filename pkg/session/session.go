// Package session implements the signed cookie session store holding the
// authenticated username.
//
// The signing key is generated from the system entropy source once at
// process start and is never persisted; restarting the process invalidates
// every outstanding session. The key lives in a Store value handed to the
// request pipeline by dependency injection, never in package state.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// CookieName is the session cookie issued on login.
	CookieName = "organizator_session"

	// KeyLength is the signing key size in bytes.
	KeyLength = 32
)

// NewKey generates a fresh signing key. Entropy exhaustion is fatal to the
// caller; there is no degraded mode.
func NewKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return key, nil
}

// Store signs and verifies session cookies with a process-lifetime key.
type Store struct {
	key    []byte
	secure bool
}

// NewStore creates a session store around the given signing key. secure
// controls the cookie Secure attribute; it is off only behind a TLS
// terminating proxy that is itself trusted.
func NewStore(key []byte, secure bool) *Store {
	return &Store{key: key, secure: secure}
}

// Set writes a signed session cookie carrying username. One atomic write
// per request; concurrent logins are last-writer-wins.
func (s *Store) Set(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.encode(username),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Principal reads the username out of the request's session cookie. A
// missing, tampered, or malformed cookie reads as "", meaning no session.
func (s *Store) Principal(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	username, ok := s.decode(cookie.Value)
	if !ok {
		return ""
	}
	return username
}

// Clear purges the session. Clearing an absent session is a no-op success.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// encode produces base64url(username) + "." + base64url(hmac-sha256).
func (s *Store) encode(username string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(username))
	return payload + "." + base64.RawURLEncoding.EncodeToString(s.sign(payload))
}

// decode verifies the signature and recovers the username.
func (s *Store) decode(value string) (string, bool) {
	payload, sig, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	wantSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(s.sign(payload), wantSig) {
		return "", false
	}
	username, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	return string(username), true
}

func (s *Store) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
