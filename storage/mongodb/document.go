package mongodb

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authgate/auth"
)

// userDocument is the BSON shape of a user record. Optional fields carry
// omitempty so absent values stay absent, which the sparse indexes and the
// $ifNull linking update rely on.
type userDocument struct {
	ID                    string    `bson:"_id"`
	Email                 string    `bson:"email"`
	PasswordHash          []byte    `bson:"password_hash,omitempty"`
	FirstName             string    `bson:"first_name,omitempty"`
	LastName              string    `bson:"last_name,omitempty"`
	Phone                 string    `bson:"phone,omitempty"`
	Provider              string    `bson:"provider"`
	ExternalID            string    `bson:"external_id,omitempty"`
	AvatarURL             string    `bson:"avatar_url,omitempty"`
	IsEmailVerified       bool      `bson:"is_email_verified"`
	VerificationToken     string    `bson:"verification_token,omitempty"`
	VerificationExpiresAt time.Time `bson:"verification_expires_at,omitempty"`
	ResetToken            string    `bson:"reset_token,omitempty"`
	ResetExpiresAt        time.Time `bson:"reset_expires_at,omitempty"`
	IsActive              bool      `bson:"is_active"`
	Role                  string    `bson:"role"`
	CreatedAt             time.Time `bson:"created_at"`
	UpdatedAt             time.Time `bson:"updated_at"`
}

func toDocument(u *auth.User) userDocument {
	return userDocument{
		ID:                    u.ID.String(),
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Phone:                 u.Phone,
		Provider:              string(u.Provider),
		ExternalID:            u.ExternalID,
		AvatarURL:             u.AvatarURL,
		IsEmailVerified:       u.IsEmailVerified,
		VerificationToken:     u.VerificationToken,
		VerificationExpiresAt: u.VerificationExpiresAt,
		ResetToken:            u.ResetToken,
		ResetExpiresAt:        u.ResetExpiresAt,
		IsActive:              u.IsActive,
		Role:                  u.Role,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (d userDocument) toUser() (*auth.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &auth.User{
		ID:                    id,
		Email:                 d.Email,
		PasswordHash:          d.PasswordHash,
		FirstName:             d.FirstName,
		LastName:              d.LastName,
		Phone:                 d.Phone,
		Provider:              auth.Provider(d.Provider),
		ExternalID:            d.ExternalID,
		AvatarURL:             d.AvatarURL,
		IsEmailVerified:       d.IsEmailVerified,
		VerificationToken:     d.VerificationToken,
		VerificationExpiresAt: d.VerificationExpiresAt,
		ResetToken:            d.ResetToken,
		ResetExpiresAt:        d.ResetExpiresAt,
		IsActive:              d.IsActive,
		Role:                  d.Role,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}, nil
}
