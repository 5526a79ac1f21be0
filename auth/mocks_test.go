package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authgate/pkg/email"
)

// MockUserStore is a mock implementation of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) GetUserByExternalID(ctx context.Context, externalID string) (*User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, id, token, expiresAt)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) ConsumeVerificationToken(ctx context.Context, token string) (*User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, id, token, expiresAt)
	return args.Error(0)
}

func (m *MockUserStore) ConsumeResetToken(ctx context.Context, token string, newHash []byte) (*User, error) {
	args := m.Called(ctx, token, newHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash []byte) error {
	args := m.Called(ctx, id, oldHash, newHash)
	return args.Error(0)
}

func (m *MockUserStore) LinkExternalAccount(ctx context.Context, id uuid.UUID, externalID, avatarURL string) (*User, error) {
	args := m.Called(ctx, id, externalID, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

// MockEmailSender is a mock implementation of email.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockProviderAdapter is a mock implementation of ProviderAdapter.
type MockProviderAdapter struct {
	mock.Mock
}

func (m *MockProviderAdapter) Provider() Provider {
	args := m.Called()
	return args.Get(0).(Provider)
}

func (m *MockProviderAdapter) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockProviderAdapter) Exchange(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockProviderAdapter) FetchProfile(ctx context.Context, accessToken string) (ExternalProfile, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(ExternalProfile), args.Error(1)
}
