package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// ErrSMTPHostPortRequired is returned by NewSMTP on incomplete settings.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Headers are added to every message, e.g. X-Mailer.
	Headers map[string]string
	// ID generates the Message-ID local part.
	ID func() string
}

// SMTP delivers through gomail's dialer, one connection per message.
type SMTP struct {
	dialer *gomail.Dialer
	cfg    SMTPConfig
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	from, err := msg.sender(s.cfg.From)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	for k, v := range s.cfg.Headers {
		m.SetHeader(k, v)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)

	var id string
	if s.cfg.ID != nil {
		id = fmt.Sprintf("<%s@%s>", s.cfg.ID(), s.cfg.Host)
		m.SetHeader("Message-ID", id)
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

func (*SMTP) Close() error { return nil }
