package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User-related domain errors.
var (
	ErrUserNotFound    = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrUserExists      = &Error{Code: ECONFLICT, Message: "A user with this email already exists"}
	ErrInvalidPassword = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
	ErrSessionExpired  = &Error{Code: EUNAUTHORIZED, Message: "Session expired"}
)

// Principal is the authenticated identity attached to a request. A nil
// *Principal means the request is unauthenticated and ownerless semantics
// apply.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// User is an account that can own invoices.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore persists users and their sessions.
type UserStore interface {
	// CreateUser persists a new user. Fails with ErrUserExists on a
	// duplicate email.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// GetUserByEmail returns ErrUserNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns ErrUserNotFound when no user matches.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CreateSession stores a new session for the user and returns its
	// opaque token.
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)

	// GetUserBySessionToken resolves a session token to its user. Fails with
	// ErrSessionExpired for known-but-expired tokens and ErrUserNotFound
	// otherwise.
	GetUserBySessionToken(ctx context.Context, token string) (*User, error)

	// DeleteSession invalidates a session token. Idempotent.
	DeleteSession(ctx context.Context, token string) error
}
