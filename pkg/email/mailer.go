package email

import (
	"context"
	"fmt"
	"regexp"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`   // Email address of the recipient
	Subject  string `json:"subject"`   // Subject of the email
	BodyHTML string `json:"body_html"` // HTML body of the email
	// Tag groups messages on the provider side. Deliverers default it to
	// the notification key so provider analytics line up with the
	// notification taxonomy.
	Tag string `json:"tag,omitempty"`
	// Metadata travels with the message to the provider. Deliverers stamp
	// the notification id and target here so bounces and opens can be
	// traced back to the stored record.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// emailRegex is intentionally permissive; real validation happens at the
// provider.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks that the parameters are sufficient to send a message.
func (p SendEmailParams) Validate() error {
	if p.SendTo == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !emailRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}
