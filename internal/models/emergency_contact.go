package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyContactStatus string

const (
	ContactStatusPending  EmergencyContactStatus = "pending"
	ContactStatusActive   EmergencyContactStatus = "active"
	ContactStatusDeclined EmergencyContactStatus = "declined"
	ContactStatusRevoked  EmergencyContactStatus = "revoked"
	ContactStatusExpired  EmergencyContactStatus = "expired"
)

// Terminal reports whether the status admits no further transitions. Pending
// is the only non-terminal state; active contacts can still be updated and
// removed but never re-enter verification.
func (s EmergencyContactStatus) Terminal() bool {
	return s != ContactStatusPending
}

// EmergencyContact is a relationship between a user and a person they want
// notified during emergencies. The contact may be an external person reached
// by email/phone or another registered user (ContactUserID set).
//
// A verification token exists only while the relationship is pending; every
// transition out of pending clears it.
type EmergencyContact struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	ContactUserID *primitive.ObjectID `json:"contact_user_id,omitempty" bson:"contact_user_id,omitempty"`

	Name         string `json:"name" bson:"name" validate:"required,max=100"`
	Email        string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email,max=100"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=20"`
	Relationship string `json:"relationship,omitempty" bson:"relationship,omitempty" validate:"max=50"`

	Status            EmergencyContactStatus `json:"status" bson:"status"`
	VerificationToken string                 `json:"-" bson:"verification_token,omitempty"`
	TokenCreatedAt    *time.Time             `json:"-" bson:"token_created_at,omitempty"`
	AcceptedAt        *time.Time             `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`

	NotifySOS        bool `json:"notify_sos" bson:"notify_sos"`
	NotifyGeofence   bool `json:"notify_geofence" bson:"notify_geofence"`
	NotifyInactivity bool `json:"notify_inactivity" bson:"notify_inactivity"`
	NotifyLowBattery bool `json:"notify_low_battery" bson:"notify_low_battery"`

	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// GenerateVerificationToken issues a fresh token and stamps its creation
// time, invalidating any previous token.
func (c *EmergencyContact) GenerateVerificationToken() {
	now := time.Now().UTC()
	c.VerificationToken = uuid.NewString()
	c.TokenCreatedAt = &now
}

// HasValidToken reports whether the contact holds an unexpired verification
// token. Only meaningful while the contact is pending.
func (c *EmergencyContact) HasValidToken(window time.Duration) bool {
	if c.VerificationToken == "" || c.TokenCreatedAt == nil {
		return false
	}
	return c.TokenCreatedAt.Add(window).After(time.Now().UTC())
}
