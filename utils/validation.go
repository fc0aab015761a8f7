package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	netmail "net/mail"
	"sort"
	"strings"

	"maxscale/models"
)

const (
	MaxNameLength     = 100
	MaxMessageLength  = 5000
	MaxOptionalLength = 500

	// FormErrorKey holds errors that do not belong to a single field.
	FormErrorKey = "_form"
)

// ErrInvalidJSON is returned when a request body is not JSON at all.
var ErrInvalidJSON = errors.New("invalid JSON in request body")

// FieldErrors maps a field name to everything wrong with it.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(fe[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateEmail accepts a single bare mailbox such as user@example.com.
// Display names and dotless domains are rejected.
func ValidateEmail(email string) error {
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("email must be a bare address")
	}
	_, domain, _ := strings.Cut(addr.Address, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return errors.New("email domain is not valid")
	}
	return nil
}

// ParseContact decodes and validates a contact form body. An empty body is
// read as an empty object. The returned error is ErrInvalidJSON or FieldErrors.
func ParseContact(body []byte) (models.ContactSubmission, error) {
	var submission models.ContactSubmission
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return submission, ErrInvalidJSON
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return submission, FieldErrors{FormErrorKey: {"Expected object"}}
	}

	errs := FieldErrors{}
	name, hasName := stringField(raw, "name", errs)
	email, hasEmail := stringField(raw, "email", errs)
	company, hasCompany := stringField(raw, "company", errs)
	service, hasService := stringField(raw, "service", errs)
	message, hasMessage := stringField(raw, "message", errs)

	switch {
	case !hasName:
		requiredUnlessTyped(errs, "name")
	case name == "":
		errs.Add("name", "Name is required")
	case textLength(name) > MaxNameLength:
		errs.Add("name", tooLong(MaxNameLength))
	}

	if !hasEmail {
		requiredUnlessTyped(errs, "email")
	} else if err := ValidateEmail(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	switch {
	case !hasMessage:
		requiredUnlessTyped(errs, "message")
	case message == "":
		errs.Add("message", "Message is required")
	case textLength(message) > MaxMessageLength:
		errs.Add("message", tooLong(MaxMessageLength))
	}

	if hasCompany && textLength(company) > MaxOptionalLength {
		errs.Add("company", tooLong(MaxOptionalLength))
	}
	if hasService && textLength(service) > MaxOptionalLength {
		errs.Add("service", tooLong(MaxOptionalLength))
	}

	if len(errs) > 0 {
		return submission, errs
	}

	submission = models.ContactSubmission{Name: name, Email: email, Message: message}
	if hasCompany {
		submission.Company = &company
	}
	if hasService {
		submission.Service = &service
	}
	return submission, nil
}

// textLength counts UTF-16 code units, the unit browsers use for string
// length, so limits agree with client side checks. Characters outside the
// basic multilingual plane count twice.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func tooLong(max int) string {
	return fmt.Sprintf("String must contain at most %d character(s)", max)
}

// stringField reads an optional string member. null counts as absent; any
// other non-string value is recorded as a type error.
func stringField(raw map[string]json.RawMessage, field string, errs FieldErrors) (string, bool) {
	msg, ok := raw[field]
	if !ok || string(msg) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		errs.Add(field, "Expected string")
		return "", false
	}
	return s, true
}

func requiredUnlessTyped(errs FieldErrors, field string) {
	if _, typed := errs[field]; !typed {
		errs.Add(field, "Required")
	}
}
