// Package notify delivers the rendered change report to its recipients.
package notify

import (
	"context"
	"errors"
)

// ErrNoRecipients is returned when a message has nobody to deliver to.
var ErrNoRecipients = errors.New("no recipients")

// Message is one rendered report ready for delivery.
type Message struct {
	Subject string
	From    string
	To      []string
	HTML    string
	Text    string // Text is the plain-text rendering for channels without HTML mail support.
}

// Notifier sends a report.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
