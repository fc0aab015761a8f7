package handlers

import (
	"net/http"
	"runtime/debug"

	"maxscale/models"
)

var securityHeaders = map[string]string{
	"Content-Type":            "application/json",
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"X-XSS-Protection":        "1; mode=block",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'self'",
}

func setSecurityHeaders(h http.Header) {
	for k, v := range securityHeaders {
		h.Set(k, v)
	}
}

// SecurityHeaders attaches the fixed header set to every response, whatever
// its status.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}

// Recover turns a panic into a generic 500 so nothing internal reaches the
// client.
func (a *API) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.logger.Error("panic while handling request",
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			setSecurityHeaders(w.Header())
			writeJSON(w, http.StatusInternalServerError, models.MessageResponse{Message: msgInternal})
		}()
		next.ServeHTTP(w, r)
	})
}
