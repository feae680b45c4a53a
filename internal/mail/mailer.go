package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"proposal-studio/internal/core"
)

// SMTPConfig holds the delivery settings for outgoing proposal mail.
type SMTPConfig struct {
	Host     string // e.g. smtp.example.com
	Port     string // e.g. 587
	Username string
	Password string
	From     string // sender address, e.g. proposals@example.com
}

// SMTPMailer delivers proposals over plain SMTP with AUTH PLAIN. It satisfies
// core.Mailer.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one proposal email. The context deadline is not honored
// mid-connection (net/smtp has no context support); callers rely on the
// server-side timeouts instead.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body, proposalRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return core.ErrMissingClientEmail
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send %s to %s: %w", proposalRef, to, err)
	}
	return nil
}

// LogMailer writes outgoing mail to the process log instead of delivering it.
// Used in development when no SMTP server is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body, proposalRef string) error {
	log.Printf("mail (dev mode): %s to=%s subject=%q\n%s", proposalRef, to, subject, body)
	return nil
}
