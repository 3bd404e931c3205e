package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"safetrack/internal/models"
	"safetrack/pkg/logger"
)

type sentEmail struct {
	to      string
	subject string
	body    string
}

type recordingEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (s *recordingEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (s *recordingEmailSender) last(t *testing.T) sentEmail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no email sent")
	}
	return s.sent[len(s.sent)-1]
}

func newNotifierFixture(t *testing.T, tokenTTL time.Duration) (NotificationService, *recordingEmailSender) {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	sender := &recordingEmailSender{}
	service := NewNotificationService(sender, nil, "https://safetrack.example.com", "SafeTrack", tokenTTL, log)
	return service, sender
}

func TestVerificationEmailRendersConfiguredExpiry(t *testing.T) {
	contact := &models.EmergencyContact{
		Name:              "Alice",
		Email:             "alice@example.com",
		VerificationToken: "tok123",
	}

	tests := []struct {
		name string
		ttl  time.Duration
		want string
	}{
		{"default week", 7 * 24 * time.Hour, "expires in 7 days"},
		{"two days", 48 * time.Hour, "expires in 2 days"},
		{"single day", 24 * time.Hour, "expires in 1 day"},
		{"hours", 36 * time.Hour, "expires in 36 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, sender := newNotifierFixture(t, tt.ttl)

			if err := service.NotifyVerificationRequested(context.Background(), contact, "Owen"); err != nil {
				t.Fatalf("NotifyVerificationRequested failed: %v", err)
			}

			msg := sender.last(t)
			if msg.to != "alice@example.com" {
				t.Errorf("to = %q, want alice@example.com", msg.to)
			}
			if !strings.Contains(msg.body, tt.want) {
				t.Errorf("body %q missing %q", msg.body, tt.want)
			}
		})
	}
}

func TestVerificationEmailContainsBothLinks(t *testing.T) {
	service, sender := newNotifierFixture(t, 7*24*time.Hour)
	contact := &models.EmergencyContact{
		Name:              "Alice",
		Email:             "alice@example.com",
		VerificationToken: "tok123",
	}

	if err := service.NotifyVerificationRequested(context.Background(), contact, "Owen"); err != nil {
		t.Fatalf("NotifyVerificationRequested failed: %v", err)
	}

	body := sender.last(t).body
	for _, link := range []string{
		"https://safetrack.example.com/api/v1/emergency-contacts/verify/tok123",
		"https://safetrack.example.com/api/v1/emergency-contacts/decline/tok123",
	} {
		if !strings.Contains(body, link) {
			t.Errorf("body missing link %q", link)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{7 * 24 * time.Hour, "7 days"},
		{24 * time.Hour, "1 day"},
		{48 * time.Hour, "2 days"},
		{time.Hour, "1 hour"},
		{36 * time.Hour, "36 hours"},
		{90 * time.Minute, "1h30m0s"},
	}

	for _, tt := range tests {
		if got := formatExpiry(tt.ttl); got != tt.want {
			t.Errorf("formatExpiry(%v) = %q, want %q", tt.ttl, got, tt.want)
		}
	}
}
