package handlers

import (
	"context"
	"net/http"
	"strings"

	"maxscale/models"
	"maxscale/utils"
)

type contextKey int

const requestContextKey contextKey = iota

const (
	// The hosting platform used to merge multiple Set-Cookie headers, so new
	// cookies travel in these headers and the page writes them itself.
	SetSessionCookieHeader = "Set-Session-Cookie"
	SetCSRFCookieHeader    = "Set-CSRF-Cookie"
)

// cookieHeader joins every Cookie header of the request; HTTP/2 clients may
// split cookies over several.
func cookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

// WithSession resolves the cookie session of a request and makes it
// available through RequestContextFrom. Cookie headers are only written when
// a new session was minted, so repeat visits leave the client untouched.
func (a *API) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, directives := utils.EnsureSession(cookieHeader(r), a.now())

		if session.IsNew {
			w.Header().Set(SetSessionCookieHeader, directives[0])
			w.Header().Set(SetCSRFCookieHeader, directives[1])
			if a.nativeCookies {
				http.SetCookie(w, utils.NativeCookie(utils.SessionCookie(session.ID, session.ExpiresAt)))
				http.SetCookie(w, utils.NativeCookie(utils.CSRFCookie(session.CSRFToken, session.ExpiresAt)))
			}
		}

		rc := &models.RequestContext{Session: session}
		rc.Request = r.WithContext(context.WithValue(r.Context(), requestContextKey, rc))
		next.ServeHTTP(w, rc.Request)
	})
}

// RequestContextFrom returns the session resolved by WithSession.
func RequestContextFrom(ctx context.Context) (models.RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(*models.RequestContext)
	if !ok {
		return models.RequestContext{}, false
	}
	return *rc, true
}

// InitSession is the bootstrap endpoint. WithSession already did the work;
// this only acknowledges it.
func (a *API) InitSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	if rc, ok := RequestContextFrom(r.Context()); ok && rc.Session.IsNew {
		a.logger.Info("session initialized", "user_agent", utils.GetUserAgent(rc.Request))
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		Message:   msgSessionReady,
		Timestamp: a.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}
