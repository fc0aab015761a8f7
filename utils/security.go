package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
)

const (
	// TokenBytes is the entropy of session ids and CSRF tokens.
	TokenBytes = 32

	CSRFHeaderName = "X-CSRF-Token"

	SessionPath = "/api/init-session"
	ContactPath = "/api/send-email"
)

// GenerateToken returns length random bytes as lowercase hex.
func GenerateToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	return hex.EncodeToString(bytes)
}

// HeaderValue looks a header up case-insensitively. Keys that were stored in
// the map without canonicalization are found as well.
func HeaderValue(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	for key, values := range h {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// VerifyCSRF reports whether the CSRF header echoes the CSRF cookie.
// Requests for the session bootstrap path are always accepted because that
// endpoint is what hands out the cookie.
func VerifyCSRF(h http.Header, cookies map[string]string, path string) bool {
	if path == SessionPath {
		return true
	}

	headerToken := HeaderValue(h, CSRFHeaderName)
	cookieToken := cookies[CSRFCookieName]
	if headerToken == "" || cookieToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// SanitizeHTML escapes text for interpolation into an HTML body. It is not
// idempotent: escaping twice turns "&lt;" into "&amp;lt;".
func SanitizeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
