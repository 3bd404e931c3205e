package services

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/pkg/logger"
	"safetrack/pkg/sms"
)

type AlertKind string

const (
	AlertSOS        AlertKind = "sos"
	AlertGeofence   AlertKind = "geofence"
	AlertInactivity AlertKind = "inactivity"
	AlertLowBattery AlertKind = "low_battery"
)

type AlertPayload struct {
	OwnerName string
	Latitude  float64
	Longitude float64
	Message   string
}

// NotificationService delivers lifecycle and alert messages to emergency
// contacts. Delivery is best-effort with a bounded retry; callers treat
// failures as log-and-continue, never as reasons to roll back a committed
// state transition.
type NotificationService interface {
	NotifyVerificationRequested(ctx context.Context, contact *models.EmergencyContact, ownerName string) error
	NotifyVerified(ctx context.Context, contact *models.EmergencyContact, ownerEmail string) error
	NotifyDeclined(ctx context.Context, contact *models.EmergencyContact, ownerEmail string) error
	NotifyRemoved(ctx context.Context, contact *models.EmergencyContact) error
	NotifyAlert(ctx context.Context, kind AlertKind, contact *models.EmergencyContact, payload *AlertPayload) error
}

const (
	notifyMaxAttempts  = 3
	notifyRetryBackoff = 500 * time.Millisecond
)

type notificationService struct {
	email    EmailSender
	sms      sms.Provider // nil when SMS is not configured
	baseURL  string
	appName  string
	tokenTTL time.Duration
	logger   *logger.Logger
}

func NewNotificationService(email EmailSender, smsProvider sms.Provider, baseURL, appName string, tokenTTL time.Duration, logger *logger.Logger) NotificationService {
	return &notificationService{
		email:    email,
		sms:      smsProvider,
		baseURL:  baseURL,
		appName:  appName,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *notificationService) NotifyVerificationRequested(ctx context.Context, contact *models.EmergencyContact, ownerName string) error {
	if contact.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("%s: %s wants you as an emergency contact", s.appName, ownerName)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"%s has asked you to be their emergency contact on %s.\n\n"+
			"To accept, open:\n%s/api/v1/emergency-contacts/verify/%s\n\n"+
			"To decline, open:\n%s/api/v1/emergency-contacts/decline/%s\n\n"+
			"This invitation expires in %s.\n",
		contact.Name, ownerName, s.appName,
		s.baseURL, contact.VerificationToken,
		s.baseURL, contact.VerificationToken,
		formatExpiry(s.tokenTTL),
	)

	return s.sendEmailWithRetry(ctx, contact.Email, subject, body)
}

func (s *notificationService) NotifyVerified(ctx context.Context, contact *models.EmergencyContact, ownerEmail string) error {
	if ownerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("%s: %s accepted your emergency contact request", s.appName, contact.Name)
	body := fmt.Sprintf(
		"%s has accepted your request and is now one of your emergency contacts.\n",
		contact.Name,
	)

	return s.sendEmailWithRetry(ctx, ownerEmail, subject, body)
}

func (s *notificationService) NotifyDeclined(ctx context.Context, contact *models.EmergencyContact, ownerEmail string) error {
	if ownerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("%s: %s declined your emergency contact request", s.appName, contact.Name)
	body := fmt.Sprintf(
		"%s has declined your request to be an emergency contact.\n",
		contact.Name,
	)

	return s.sendEmailWithRetry(ctx, ownerEmail, subject, body)
}

func (s *notificationService) NotifyRemoved(ctx context.Context, contact *models.EmergencyContact) error {
	if contact.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("%s: emergency contact relationship removed", s.appName)
	body := fmt.Sprintf(
		"Hello %s,\n\nYou are no longer listed as an emergency contact on %s.\n",
		contact.Name, s.appName,
	)

	return s.sendEmailWithRetry(ctx, contact.Email, subject, body)
}

// NotifyAlert fans a single alert out to one contact over every channel the
// contact can receive. It succeeds if at least one channel delivered.
func (s *notificationService) NotifyAlert(ctx context.Context, kind AlertKind, contact *models.EmergencyContact, payload *AlertPayload) error {
	subject, body := s.renderAlert(kind, payload)

	var emailErr, smsErr error
	delivered := false

	if contact.Email != "" {
		emailErr = s.sendEmailWithRetry(ctx, contact.Email, subject, body)
		if emailErr == nil {
			delivered = true
		}
	}

	if s.sms != nil && contact.Phone != "" {
		_, smsErr = s.sms.SendSMS(ctx, &sms.Request{
			To:      contact.Phone,
			Message: subject + " " + s.locationLine(payload),
		})
		if smsErr == nil {
			delivered = true
		}
	}

	if delivered {
		return nil
	}
	if emailErr != nil {
		return emailErr
	}
	if smsErr != nil {
		return smsErr
	}
	return fmt.Errorf("contact %s has no reachable channel", contact.ID.Hex())
}

func (s *notificationService) renderAlert(kind AlertKind, payload *AlertPayload) (subject, body string) {
	switch kind {
	case AlertSOS:
		subject = fmt.Sprintf("%s SOS: %s needs help", s.appName, payload.OwnerName)
	case AlertGeofence:
		subject = fmt.Sprintf("%s alert: %s left a safe zone", s.appName, payload.OwnerName)
	case AlertInactivity:
		subject = fmt.Sprintf("%s alert: %s has been inactive", s.appName, payload.OwnerName)
	case AlertLowBattery:
		subject = fmt.Sprintf("%s alert: %s's phone battery is low", s.appName, payload.OwnerName)
	default:
		subject = fmt.Sprintf("%s alert for %s", s.appName, payload.OwnerName)
	}

	body = s.locationLine(payload)
	if payload.Message != "" {
		body += "\n\nMessage: " + payload.Message
	}
	return subject, body
}

func (s *notificationService) locationLine(payload *AlertPayload) string {
	return fmt.Sprintf("Last known position: https://maps.google.com/?q=%f,%f",
		payload.Latitude, payload.Longitude)
}

func formatExpiry(ttl time.Duration) string {
	switch {
	case ttl >= 24*time.Hour && ttl%(24*time.Hour) == 0:
		days := int(ttl / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case ttl >= time.Hour && ttl%time.Hour == 0:
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return ttl.String()
	}
}

func (s *notificationService) sendEmailWithRetry(ctx context.Context, to, subject, body string) error {
	var err error
	for attempt := 1; attempt <= notifyMaxAttempts; attempt++ {
		err = s.email.SendEmail(ctx, to, subject, body)
		if err == nil {
			return nil
		}

		s.logger.WithError(err).WithFields(map[string]interface{}{
			"to":      to,
			"attempt": attempt,
		}).Warn("Email delivery failed")

		if attempt < notifyMaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * notifyRetryBackoff):
			}
		}
	}

	return err
}
