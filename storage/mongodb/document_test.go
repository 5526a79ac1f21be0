package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authgate/auth"
)

func TestUserDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Millisecond)
	user := &auth.User{
		ID:                    uuid.New(),
		Email:                 "user@example.com",
		PasswordHash:          []byte("$2a$10$hash"),
		FirstName:             "Jane",
		LastName:              "Doe",
		Phone:                 "+12025550123",
		Provider:              auth.ProviderEmail,
		AvatarURL:             "https://cdn.example.com/a.png",
		IsEmailVerified:       false,
		VerificationToken:     "tok",
		VerificationExpiresAt: now.Add(24 * time.Hour),
		IsActive:              true,
		Role:                  auth.RoleUser,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	back, err := toDocument(user).toUser()
	require.NoError(t, err)
	assert.Equal(t, user, back)
}

func TestUserDocumentRejectsMalformedID(t *testing.T) {
	t.Parallel()

	_, err := userDocument{ID: "not-a-uuid"}.toUser()
	assert.Error(t, err)
}
