package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/predictarb/predictarb/internal/domain"
)

// EmailConfig holds SMTP delivery parameters.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	To       []string
	Username string
	Password string
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	cfg EmailConfig
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates an EmailSender for the given SMTP configuration.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, send: smtp.SendMail}
}

// Send delivers a plain-text email with the title as subject to the
// configured recipient list.
func (e *EmailSender) Send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	if len(e.cfg.To) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + e.cfg.From,
		"To: " + strings.Join(e.cfg.To, ", "),
		"Subject: " + title,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		message,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, []byte(msg)); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

// Channel returns the channel identifier.
func (e *EmailSender) Channel() domain.AlertChannel {
	return domain.ChannelEmail
}
