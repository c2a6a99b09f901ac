package app_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"photo-quest-service/internal/app"
	"photo-quest-service/internal/domain"
	"photo-quest-service/internal/infra/memory"
	"photo-quest-service/internal/logging"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := app.NewUserService(store, bcrypt.MinCost, logging.Discard())

	user, err := users.Register(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "s3cret" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if _, err := users.Register(ctx, "alice", "other"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := users.Register(ctx, "bob", ""); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}

	if err := users.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := users.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if err := users.Login(ctx, "mallory", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if ok, err := users.Exists(ctx, "alice"); err != nil || !ok {
		t.Fatalf("expected alice to exist: %v %v", ok, err)
	}
	if ok, err := users.Exists(ctx, "mallory"); err != nil || ok {
		t.Fatalf("expected mallory to be unknown: %v %v", ok, err)
	}
}
