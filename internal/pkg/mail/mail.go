// Package mail sends email through a pluggable provider (SMTP, Amazon SES,
// or a log-only sink for local runs).
package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

var (
	ErrNoRecipients = errors.New("mail: no recipients")
	ErrNoSender     = errors.New("mail: no sender")
	ErrNoBody       = errors.New("mail: empty body")
)

// Message is a provider-neutral email.
type Message struct {
	// From overrides the driver's default sender.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages. Send returns the provider's message id.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) (string, error)
}

// sender resolves the From address and checks the message is deliverable.
func (m Message) sender(fallback string) (string, error) {
	if len(m.To)+len(m.Cc)+len(m.Bcc) == 0 {
		return "", ErrNoRecipients
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return "", ErrNoBody
	}
	from := m.From
	if from == "" {
		from = fallback
	}
	if from == "" {
		return "", ErrNoSender
	}
	return from, nil
}

// Log only writes messages to slog. Bodies are never logged.
type Log struct {
	From string
	ID   func() string
}

func (l Log) Send(ctx context.Context, msg Message) (string, error) {
	from, err := msg.sender(l.From)
	if err != nil {
		return "", err
	}
	id := "log"
	if l.ID != nil {
		id = l.ID()
	}
	slog.InfoContext(ctx, "mail captured by log driver", "id", id, "from", from, "to", msg.To, "subject", msg.Subject)
	return id, nil
}

func (Log) Close() error { return nil }
