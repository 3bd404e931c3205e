package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"safetrack/internal/models"
	"safetrack/pkg/logger"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()

	users := newFakeUserRepo()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	return NewAuthService(users, "test-secret", time.Hour, log), users
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newAuthFixture(t)

	registered, err := auth.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if registered.AccessToken == "" {
		t.Error("no access token issued on registration")
	}
	if registered.User.Password != "" && registered.User.Password == "correct-horse-battery" {
		t.Error("password stored in plain text")
	}
	if !registered.User.HasRole(models.RoleUser) {
		t.Error("user role not assigned")
	}

	logged, err := auth.Login(context.Background(), &LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.User.ID != registered.User.ID {
		t.Error("login returned a different user")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth, _ := newAuthFixture(t)

	if _, err := auth.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "correct-horse-battery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(context.Background(), &LoginRequest{Email: tt.email, Password: tt.password})
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newAuthFixture(t)

	req := &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}
	if _, err := auth.Register(context.Background(), req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := auth.Register(context.Background(), req); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("err = %v, want ErrValidationFailed", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	auth, _ := newAuthFixture(t)

	_, err := auth.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("err = %v, want ErrValidationFailed", err)
	}
}

func TestValidateToken(t *testing.T) {
	auth, _ := newAuthFixture(t)

	registered, err := auth.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	caller, err := auth.ValidateToken(registered.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if caller.UserID != registered.User.ID {
		t.Error("token subject does not match registered user")
	}
	if len(caller.Roles) == 0 {
		t.Error("roles missing from token claims")
	}

	if _, err := auth.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("garbage token: err = %v, want ErrInvalidCredentials", err)
	}
}
