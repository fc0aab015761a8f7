package models

// ContactSubmission is a validated contact form payload. It is never persisted.
type ContactSubmission struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company,omitempty"`
	Service *string `json:"service,omitempty"`
	Message string  `json:"message"`
}

// Address is a display name plus mailbox.
type Address struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}

// MailMessage is what the contact handler hands to a mail sender.
type MailMessage struct {
	From    Address
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}
