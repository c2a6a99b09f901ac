package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"photo-quest-service/internal/domain"
)

// UserService handles registration and credential checks. It issues no
// sessions or tokens.
type UserService struct {
	users  UserStore
	cost   int
	logger logrus.FieldLogger
}

// NewUserService uses cost for bcrypt hashing; pass bcrypt.DefaultCost in
// production and bcrypt.MinCost in tests.
func NewUserService(users UserStore, cost int, logger logrus.FieldLogger) *UserService {
	return &UserService{users: users, cost: cost, logger: logger}
}

func (s *UserService) Register(ctx context.Context, userID, password string) (domain.User, error) {
	if userID == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: userId and password are required", domain.ErrMissingField)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{ID: userID, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.WithField("user_id", userID).Info("user registered")
	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userID, password string) error {
	if userID == "" || password == "" {
		return fmt.Errorf("%w: userId and password are required", domain.ErrMissingField)
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *UserService) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}
