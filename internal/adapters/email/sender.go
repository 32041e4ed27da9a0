package email

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address, e.g. "Voluntrip <hello@voluntrip.pt>"; empty uses the sender default
	Subject string
	HTML    string // HTML body
	Text    string // Plain-text alternative
	ReplyTo string
	Tag     string // Provider-side category, e.g. "volunteer_confirmation"
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
