package email

import (
	"context"
	"errors"
)

// ErrNoMessageID is returned when a provider accepts a request but does not
// hand back a message id.
var ErrNoMessageID = errors.New("provider returned no message id")

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Tag     string
}

// Sender delivers a rendered message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
