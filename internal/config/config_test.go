package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Contacts.MaxContacts != 5 {
		t.Errorf("MaxContacts = %d, want 5", cfg.Contacts.MaxContacts)
	}
	if cfg.Contacts.TokenExpiry != 7*24*time.Hour {
		t.Errorf("TokenExpiry = %v, want 168h", cfg.Contacts.TokenExpiry)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Database.Database != "safetrack" {
		t.Errorf("Database = %q, want safetrack", cfg.Database.Database)
	}
	if !reflect.DeepEqual(cfg.Security.CORSAllowedOrigins, []string{"*"}) {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.Security.CORSAllowedOrigins)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"https://app.example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.Security.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.Security.CORSAllowedOrigins, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EMERGENCY_CONTACT_MAX", "3")
	t.Setenv("EMERGENCY_CONTACT_TOKEN_EXPIRY", "48h")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SMS_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Contacts.MaxContacts != 3 {
		t.Errorf("MaxContacts = %d, want 3", cfg.Contacts.MaxContacts)
	}
	if cfg.Contacts.TokenExpiry != 48*time.Hour {
		t.Errorf("TokenExpiry = %v, want 48h", cfg.Contacts.TokenExpiry)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.App.Port)
	}
	if !cfg.SMS.Enabled {
		t.Error("SMS.Enabled = false, want true")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("EMERGENCY_CONTACT_MAX", "not-a-number")
	t.Setenv("EMERGENCY_CONTACT_TOKEN_EXPIRY", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Contacts.MaxContacts != 5 {
		t.Errorf("MaxContacts = %d, want default 5", cfg.Contacts.MaxContacts)
	}
	if cfg.Contacts.TokenExpiry != 7*24*time.Hour {
		t.Errorf("TokenExpiry = %v, want default 168h", cfg.Contacts.TokenExpiry)
	}
}
