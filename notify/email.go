package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// EmailConfig carries the SMTP settings resolved by the config layer.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email sends alerts as plain-text mail.
type Email struct {
	cfg  EmailConfig
	send func(addr string, a smtp.Auth, m *email.Email) error
}

func NewEmail(cfg EmailConfig) *Email {
	return &Email{
		cfg: cfg,
		send: func(addr string, a smtp.Auth, m *email.Email) error {
			return m.Send(addr, a)
		},
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Notify(ctx context.Context, title, message string) error {
	if e.cfg.Host == "" || e.cfg.From == "" || len(e.cfg.To) == 0 {
		return fmt.Errorf("email: %w", ErrNotConfigured)
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Apartment Tracker <%s>", e.cfg.From)
	mail.To = e.cfg.To
	mail.Subject = title
	mail.Text = []byte(message)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	// net/smtp has no context support; run the send in the background so the
	// caller's deadline still bounds how long we wait.
	done := make(chan error, 1)
	go func() { done <- e.send(addr, auth, mail) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: send: %w", ctx.Err())
	}
}
