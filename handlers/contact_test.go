package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"maxscale/models"
)

func TestComposeMessage(t *testing.T) {
	company := "Acme"
	empty := ""
	from := models.Address{Name: "MaxScale Website", Address: "website@example.com"}
	recipients := []string{"team@example.com"}

	msg := ComposeMessage(models.ContactSubmission{
		Name:    "Jane Doe",
		Email:   "jane@x.com",
		Company: &company,
		Service: &empty,
		Message: "Hi",
	}, from, recipients)

	assert.Equal(t, from, msg.From)
	assert.Equal(t, "jane@x.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "<strong>Company:</strong> Acme")
	assert.Contains(t, msg.HTML, "<strong>Service Interested In:</strong> Not specified", "empty strings fall back to the placeholder")
	assert.Contains(t, msg.HTML, "<p>Hi</p>")

	recipients[0] = "changed@example.com"
	assert.Equal(t, "team@example.com", msg.To[0], "recipient list is copied")
}

func TestRetryAfterString(t *testing.T) {
	assert.Equal(t, "1", retryAfterString(0))
	assert.Equal(t, "1", retryAfterString(300e6))
	assert.Equal(t, "55", retryAfterString(55e9))
	assert.Equal(t, "56", retryAfterString(55e9+1))
}
