package models

// MessageResponse is the body shared by most endpoint replies.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionResponse is returned by the session bootstrap endpoint.
type SessionResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SubmitResponse is returned after a contact message was handed to the mail provider.
type SubmitResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// ValidationResponse carries field level errors for a rejected submission.
type ValidationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// DispatchErrorResponse is returned when the mail provider rejected a message.
// Error is only filled outside production.
type DispatchErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
