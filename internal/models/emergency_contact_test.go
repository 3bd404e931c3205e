package models

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   EmergencyContactStatus
		terminal bool
	}{
		{ContactStatusPending, false},
		{ContactStatusActive, true},
		{ContactStatusDeclined, true},
		{ContactStatusRevoked, true},
		{ContactStatusExpired, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	contact := &EmergencyContact{}

	contact.GenerateVerificationToken()
	first := contact.VerificationToken
	if first == "" {
		t.Fatal("no token generated")
	}
	if contact.TokenCreatedAt == nil {
		t.Fatal("token creation time not set")
	}

	contact.GenerateVerificationToken()
	if contact.VerificationToken == first {
		t.Error("regeneration did not produce a new token")
	}
}

func TestHasValidToken(t *testing.T) {
	window := 7 * 24 * time.Hour

	fresh := time.Now().UTC().Add(-time.Hour)
	stale := time.Now().UTC().Add(-window - time.Minute)

	tests := []struct {
		name    string
		contact EmergencyContact
		want    bool
	}{
		{"no token", EmergencyContact{}, false},
		{"token without timestamp", EmergencyContact{VerificationToken: "tok"}, false},
		{"fresh token", EmergencyContact{VerificationToken: "tok", TokenCreatedAt: &fresh}, true},
		{"expired token", EmergencyContact{VerificationToken: "tok", TokenCreatedAt: &stale}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.contact.HasValidToken(window); got != tt.want {
				t.Errorf("HasValidToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeoPointOrdering(t *testing.T) {
	p := NewGeoPoint(40.7128, -74.0060)

	if p.Type != "Point" {
		t.Errorf("type = %q, want Point", p.Type)
	}
	// GeoJSON stores longitude first.
	if p.Coordinates[0] != -74.0060 || p.Coordinates[1] != 40.7128 {
		t.Errorf("coordinates = %v, want [lng lat]", p.Coordinates)
	}
	if p.Latitude() != 40.7128 || p.Longitude() != -74.0060 {
		t.Error("accessor ordering mismatch")
	}
}
