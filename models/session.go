package models

import (
	"net/http"
	"time"
)

// Session is the cookie-held browser session. Nothing about it is stored
// server side; the pair of cookies is the record.
type Session struct {
	ID        string    `json:"session_id"`
	CSRFToken string    `json:"csrf_token"`
	IsNew     bool      `json:"is_new"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestContext pairs a request with the session resolved for it. Request
// is the request handed to downstream handlers, so its context carries this
// value.
type RequestContext struct {
	Request *http.Request
	Session Session
}
