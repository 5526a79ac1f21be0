package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authgate/pkg/jwt"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
)

// Roles assigned to user accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account. PasswordHash is set only for email-provider
// accounts; ExternalID only for accounts linked to an external provider. The
// verification and reset token fields are one-time lookup keys cleared on
// consumption; a zero expiry means no token is outstanding.
type User struct {
	ID                    uuid.UUID
	Email                 string
	PasswordHash          []byte
	FirstName             string
	LastName              string
	Phone                 string
	Provider              Provider
	ExternalID            string
	AvatarURL             string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt time.Time
	ResetToken            string
	ResetExpiresAt        time.Time
	IsActive              bool
	Role                  string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserProjection is the public view of a user returned to clients. It never
// carries the password hash or any outstanding token material.
type UserProjection struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Provider        Provider  `json:"provider"`
	IsEmailVerified bool      `json:"is_email_verified"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
}

// Projection returns the public view of the user.
func (u *User) Projection() UserProjection {
	return UserProjection{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Provider:        u.Provider,
		IsEmailVerified: u.IsEmailVerified,
		AvatarURL:       u.AvatarURL,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
	}
}

// AuthResult bundles a freshly issued token pair with the authenticated user.
type AuthResult struct {
	Tokens jwt.Pair       `json:"tokens"`
	User   UserProjection `json:"user"`
}

// RegisterParams carries the registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}
