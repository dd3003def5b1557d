package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/billwave/billwave/internal/auth"
	"github.com/billwave/billwave/internal/domain"
)

// Auth-specific errors
var (
	ErrEmailRequired      = domain.Errorf(domain.EINVALID, "", "Email is required")
	ErrWeakPassword       = domain.Errorf(domain.EINVALID, "", "Password must be at least 8 characters")
	ErrInvalidCredentials = domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid email or password")
)

// UserService handles account registration and session auth.
type UserService interface {
	// Register creates an account and returns the stored user.
	Register(ctx context.Context, email, password, name string) (*domain.User, error)

	// Login verifies credentials and returns the user with a session token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// Logout invalidates a session token.
	Logout(ctx context.Context, token string) error
}

type userService struct {
	store  domain.UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(store domain.UserStore, logger *slog.Logger) UserService {
	return &userService{
		store:  store,
		logger: logger.With("service", "user"),
	}
}

// Register creates an account with a bcrypt password hash.
func (s *userService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, ErrWeakPassword
		}
		return nil, domain.Internal(err, "user.register", "Failed to create account")
	}

	user, err := s.store.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         "user",
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// Login verifies the password and creates a session. Unknown emails and bad
// passwords produce the same error.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", domain.Internal(err, "user.login", "Failed to verify credentials")
	}

	token, err := s.store.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout deletes the session token.
func (s *userService) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}
