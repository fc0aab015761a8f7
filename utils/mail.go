package utils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"maxscale/models"
)

// Sender delivers a composed message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg models.MailMessage) (string, error)
}

// ProviderError is a non-2xx reply from the mail provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mail provider returned status %d: %s", e.StatusCode, e.Body)
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *SendGridSender) Send(ctx context.Context, msg models.MailMessage) (string, error) {
	response, err := s.client.SendWithContext(ctx, BuildSendGridMail(msg))
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: response.StatusCode, Body: response.Body}
	}

	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// BuildSendGridMail maps a message onto the SendGrid v3 payload. All
// recipients share one personalization so they see each other.
func BuildSendGridMail(msg models.MailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.From.Name, msg.From.Address))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	return m
}

// LogSender writes messages to the log instead of sending them. It is used
// for local development when no provider key is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg models.MailMessage) (string, error) {
	id := "dev-" + uuid.NewString()
	s.logger.Info("mail not sent, no provider configured",
		"message_id", id,
		"from", msg.From.Address,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
	)
	return id, nil
}
