package services

import (
	"errors"
	"testing"

	"affiliate-program/internal/auth"
	"affiliate-program/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	auth.InitJWT("test-secret")
	db := setupTestDB(t)
	service := NewAuthService(db)

	user, err := service.Register("alice@example.com", "s3cret-pass", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("expected default role user, got %s", user.Role)
	}
	if user.Password == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}

	if _, err := service.Register("alice@example.com", "other", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	token, loggedIn, err := service.Login("alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if loggedIn.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, loggedIn.ID)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("claims mismatch: %+v", claims)
	}

	if _, _, err := service.Login("alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for a wrong password, got %v", err)
	}
	if _, _, err := service.Login("nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for an unknown email, got %v", err)
	}
}
