package mailer

import (
	"context"
)

// Message is one outgoing email. TextBody is optional; HTMLBody is always set.
type Message struct {
	Kind     string
	To       string
	From     string
	Subject  string
	TextBody string
	HTMLBody string
}

// Provider delivers a single message.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
