package utils

import (
	"net"
	"net/http"
	"strings"
	"time"

	"maxscale/models"
)

// UnknownClient is the shared rate-limit bucket for requests whose origin
// cannot be determined.
const UnknownClient = "unknown"

// EnsureSession resolves the session carried by a raw Cookie header. When
// either cookie is missing a fresh session is minted and the two cookie
// strings the client has to store are returned; otherwise directives is nil.
func EnsureSession(cookieHeader string, now time.Time) (models.Session, []string) {
	cookies := ParseCookies(cookieHeader)
	sessionID := cookies[SessionCookieName]
	csrfToken := cookies[CSRFCookieName]

	if sessionID != "" && csrfToken != "" {
		return models.Session{ID: sessionID, CSRFToken: csrfToken}, nil
	}

	expires := now.Add(SessionExpiry)
	session := models.Session{
		ID:        GenerateToken(TokenBytes),
		CSRFToken: GenerateToken(TokenBytes),
		IsNew:     true,
		ExpiresAt: expires,
	}
	directives := []string{
		SerializeCookie(SessionCookie(session.ID, expires)),
		SerializeCookie(CSRFCookie(session.CSRFToken, expires)),
	}
	return session, directives
}

func CookieExists(r *http.Request, name string) bool {
	st, err := r.Cookie(name)
	return err == nil && st.Value != ""
}

// GetUserAgent returns the User-Agent string from the request
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// ClientKey returns the rate-limit key for a request. Proxy supplied headers
// are only consulted when trustProxy is set.
func ClientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(r.Header.Get("Client-IP")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return UnknownClient
}
