package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"maxscale/models"
	"maxscale/utils"
)

const (
	companyPlaceholder = "Not provided"
	servicePlaceholder = "Not specified"
)

// SendEmail accepts a contact form submission and forwards it to the mail
// provider.
func (a *API) SendEmail(w http.ResponseWriter, r *http.Request) {
	messageID, err := a.submit(r)
	if err != nil {
		a.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitResponse{
		Message:   msgSent,
		MessageID: messageID,
	})
}

// submit runs the gate chain in order; the first failing gate ends the
// request.
func (a *API) submit(r *http.Request) (string, error) {
	if r.Method != http.MethodPost {
		return "", ErrMethodNotAllowed
	}

	cookies := utils.ParseCookies(cookieHeader(r))
	if !utils.VerifyCSRF(r.Header, cookies, r.URL.Path) {
		a.logCSRFFailure(r, cookies)
		return "", ErrCSRFRejected
	}

	clientKey := utils.ClientKey(r, a.trustProxy)
	allowed, retryAfter, _ := a.limiter.Allow(r.Context(), clientKey)
	if !allowed {
		a.logger.Warn("rate limit exceeded", "client", clientKey)
		return "", &RateLimitedError{RetryAfter: retryAfter}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(body) > maxBodyBytes {
		return "", ErrBodyTooLarge
	}

	submission, err := utils.ParseContact(body)
	if err != nil {
		var fieldErrs utils.FieldErrors
		if errors.As(err, &fieldErrs) {
			return "", &ValidationError{Fields: fieldErrs}
		}
		return "", fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.sendTimeout)
	defer cancel()

	messageID, err := a.sender.Send(ctx, ComposeMessage(submission, a.from, a.recipients))
	if err != nil {
		a.logger.Error("error sending email", "error", err)
		return "", &MailDispatchError{Err: err}
	}

	a.logger.Info("email sent", "message_id", messageID)
	return messageID, nil
}

// logCSRFFailure records which half of the token pair was missing. Token
// values are never logged.
func (a *API) logCSRFFailure(r *http.Request, cookies map[string]string) {
	newSession := false
	if rc, ok := RequestContextFrom(r.Context()); ok {
		newSession = rc.Session.IsNew
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}

	a.logger.Warn("CSRF token validation failed",
		"header_present", utils.HeaderValue(r.Header, utils.CSRFHeaderName) != "",
		"cookie_present", utils.CookieExists(r, utils.CSRFCookieName),
		"cookie_names", names,
		"new_session", newSession,
		"user_agent", utils.GetUserAgent(r),
	)
}

// ComposeMessage builds the notification mail for a submission. Every user
// supplied value is escaped before it is placed in the HTML body; the reply
// address is kept raw so replies reach the submitter.
func ComposeMessage(s models.ContactSubmission, from models.Address, recipients []string) models.MailMessage {
	name := utils.SanitizeHTML(s.Name)
	company := utils.SanitizeHTML(orDefault(s.Company, companyPlaceholder))
	service := utils.SanitizeHTML(orDefault(s.Service, servicePlaceholder))

	html := fmt.Sprintf(`
      <h2>New Contact Form Submission</h2>
      <p><strong>Name:</strong> %s</p>
      <p><strong>Email:</strong> %s</p>
      <p><strong>Company:</strong> %s</p>
      <p><strong>Service Interested In:</strong> %s</p>
      <h3>Message:</h3>
      <p>%s</p>
    `, name, utils.SanitizeHTML(s.Email), company, service, utils.SanitizeHTML(s.Message))

	to := make([]string, len(recipients))
	copy(to, recipients)

	return models.MailMessage{
		From:    from,
		To:      to,
		Subject: "New Contact Form Submission from " + name,
		HTML:    html,
		ReplyTo: s.Email,
	}
}

func orDefault(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
