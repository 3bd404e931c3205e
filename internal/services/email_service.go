package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"safetrack/internal/config"
)

// EmailSender delivers a single plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smtpEmailSender struct {
	config *config.SMTPConfig
}

func NewSMTPEmailSender(cfg *config.SMTPConfig) EmailSender {
	return &smtpEmailSender{config: cfg}
}

func (s *smtpEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	from := s.config.FromEmail
	msg := buildMessage(from, s.config.FromName, to, subject, body)

	if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

func buildMessage(from, fromName, to, subject, body string) []byte {
	var b strings.Builder

	if fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
