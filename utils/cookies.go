package utils

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName = "maxscale_session"
	CSRFCookieName    = "maxscale_csrf"

	// SessionExpiry is fixed at mint time; sessions are never extended.
	SessionExpiry = 24 * time.Hour
)

// CookieSpec describes a cookie to be written by the browser.
type CookieSpec struct {
	Name     string
	Value    string
	HttpOnly bool
	Expires  time.Time
}

// ParseCookies turns a raw Cookie header into a name to value map.
// Pairs without a name or a value are dropped and later duplicates win.
func ParseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	if header == "" {
		return cookies
	}

	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		cookies[name] = value
	}

	return cookies
}

// SerializeCookie renders a Set-Cookie formatted string. Every cookie is
// Secure, SameSite=Strict and scoped to the whole site.
func SerializeCookie(c CookieSpec) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	b.WriteString("; Secure; SameSite=Strict; Path=/")
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(http.TimeFormat))
	}
	return b.String()
}

// SessionCookie is hidden from page scripts.
func SessionCookie(sessionID string, expires time.Time) CookieSpec {
	return CookieSpec{Name: SessionCookieName, Value: sessionID, HttpOnly: true, Expires: expires}
}

// CSRFCookie must stay readable by page scripts so they can echo it in a header.
func CSRFCookie(token string, expires time.Time) CookieSpec {
	return CookieSpec{Name: CSRFCookieName, Value: token, HttpOnly: false, Expires: expires}
}

// NativeCookie converts a CookieSpec into an *http.Cookie for http.SetCookie.
func NativeCookie(c CookieSpec) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		HttpOnly: c.HttpOnly,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  c.Expires,
	}
}
