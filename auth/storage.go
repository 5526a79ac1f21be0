package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines the user directory operations the auth flows require.
// Implementations must return ErrUserNotFound for missing records and
// ErrEmailAlreadyExists when a create violates email uniqueness.
//
// The Consume* operations and UpdatePasswordHash must each execute as a
// single conditional update, never a read followed by a write: opaque tokens
// are one-time use and concurrent consumers must not both succeed.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*User, error)

	// SetVerificationToken stores a new verification token and expiry,
	// overwriting any prior token.
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// GetUserByVerificationToken returns the user holding the token if it has
	// not expired. Used only to classify consumption failures.
	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)
	// ConsumeVerificationToken atomically matches an unexpired token on an
	// unverified user, marks the user verified and clears the token. Returns
	// ErrUserNotFound when nothing matched.
	ConsumeVerificationToken(ctx context.Context, token string) (*User, error)

	// SetResetToken stores a new password reset token and expiry,
	// overwriting any prior token.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	// ConsumeResetToken atomically matches an unexpired reset token, installs
	// the new password hash and clears the token. Returns ErrUserNotFound
	// when nothing matched.
	ConsumeResetToken(ctx context.Context, token string, newHash []byte) (*User, error)

	// UpdatePasswordHash replaces the password hash only if oldHash still
	// matches at write time. Returns ErrConcurrentPasswordChange when another
	// writer won the race.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash []byte) error

	// LinkExternalAccount attaches an external provider identity to an
	// existing account: sets the external id, forces the email verified, and
	// adopts avatarURL only when the account has none (local data wins).
	LinkExternalAccount(ctx context.Context, id uuid.UUID, externalID, avatarURL string) (*User, error)
}

// Denylist tracks revoked refresh-token ids (jti) until their natural expiry.
// A nil Denylist on the Service degrades refresh validity to time-bound only.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
