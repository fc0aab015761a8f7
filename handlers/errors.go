package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"maxscale/models"
	"maxscale/utils"
)

const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgCSRFRejected     = "CSRF token validation failed"
	msgRateLimited      = "Too many requests. Please try again later."
	msgMalformedBody    = "Invalid JSON in request body"
	msgBodyTooLarge     = "Request body too large"
	msgValidation       = "Validation failed"
	msgDispatchFailed   = "Failed to send email"
	msgInternal         = "An error occurred while processing your request"
	msgSent             = "Email sent successfully"
	msgSessionReady     = "Session initialized"
)

var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrCSRFRejected     = errors.New("csrf token rejected")
	ErrMalformedBody    = errors.New("malformed request body")
	ErrBodyTooLarge     = errors.New("request body too large")
)

// RateLimitedError is returned when a client used up its window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// ValidationError carries the field level report for a rejected submission.
type ValidationError struct {
	Fields utils.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// MailDispatchError wraps a failure reported by the mail sender.
type MailDispatchError struct {
	Err error
}

func (e *MailDispatchError) Error() string {
	return "mail dispatch failed: " + e.Err.Error()
}

func (e *MailDispatchError) Unwrap() error {
	return e.Err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.MessageResponse{Message: msg})
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func retryAfterString(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// writeSubmitError maps a contact submission failure onto its response.
// Only validation failures carry detail; provider errors are shown only when
// error detail is enabled.
func (a *API) writeSubmitError(w http.ResponseWriter, err error) {
	var (
		limited    *RateLimitedError
		validation *ValidationError
		dispatch   *MailDispatchError
	)

	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		writeMethodNotAllowed(w, http.MethodPost)
	case errors.Is(err, ErrCSRFRejected):
		writeMessage(w, http.StatusForbidden, msgCSRFRejected)
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", retryAfterString(limited.RetryAfter))
		writeMessage(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, ErrBodyTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
	case errors.Is(err, ErrMalformedBody):
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, models.ValidationResponse{
			Message: msgValidation,
			Errors:  validation.Fields,
		})
	case errors.As(err, &dispatch):
		resp := models.DispatchErrorResponse{Message: msgDispatchFailed}
		if a.errorDetail {
			resp.Error = dispatch.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
