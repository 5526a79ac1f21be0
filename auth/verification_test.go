package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authgate/auth"
	"github.com/dmitrymomot/authgate/pkg/email"
)

func TestService_SendVerificationEmail(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&auth.User{
			ID:        userID,
			Email:     "user@example.com",
			FirstName: "Jane",
			Provider:  auth.ProviderEmail,
		}, nil)

		var storedToken string
		store.On("SetVerificationToken", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) { storedToken = args.String(2) }).
			Return(nil)
		mailer.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == "user@example.com" && p.Tag == "email_verification"
		})).Return(nil)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.SendVerificationEmail(context.Background(), "user@example.com")
		require.NoError(t, err)
		assert.Len(t, storedToken, 64)

		// The email body must carry the exact token that was stored.
		sent := mailer.Calls[0].Arguments.Get(1).(email.SendEmailParams)
		assert.True(t, strings.Contains(sent.BodyHTML, storedToken))
		store.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, auth.ErrUserNotFound)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com")

		err := svc.SendVerificationEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(&auth.User{
			ID:              uuid.New(),
			Email:           "done@example.com",
			IsEmailVerified: true,
		}, nil)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com")

		err := svc.SendVerificationEmail(context.Background(), "done@example.com")
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyVerified)
		store.AssertNotCalled(t, "SetVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery failure propagates", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(&auth.User{
			ID:    uuid.New(),
			Email: "user@example.com",
		}, nil)
		store.On("SetVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		mailer.On("SendEmail", mock.Anything, mock.Anything).Return(assert.AnError)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.SendVerificationEmail(context.Background(), "user@example.com")
		assert.ErrorIs(t, err, auth.ErrEmailDelivery)
	})
}

func TestService_VerifyEmail(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("ConsumeVerificationToken", mock.Anything, "valid-token").Return(&auth.User{
			ID:              uuid.New(),
			IsEmailVerified: true,
		}, nil)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com")

		err := svc.VerifyEmail(context.Background(), "valid-token")
		require.NoError(t, err)
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("ConsumeVerificationToken", mock.Anything, "bogus").Return(nil, auth.ErrUserNotFound)
		store.On("GetUserByVerificationToken", mock.Anything, "bogus").Return(nil, auth.ErrUserNotFound)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com")

		err := svc.VerifyEmail(context.Background(), "bogus")
		assert.ErrorIs(t, err, auth.ErrInvalidVerificationToken)
	})

	t.Run("replay on verified account", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("ConsumeVerificationToken", mock.Anything, "stale-token").Return(nil, auth.ErrUserNotFound)
		store.On("GetUserByVerificationToken", mock.Anything, "stale-token").Return(&auth.User{
			ID:              uuid.New(),
			IsEmailVerified: true,
		}, nil)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com")

		err := svc.VerifyEmail(context.Background(), "stale-token")
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyVerified)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	t.Parallel()

	t.Run("sends reset email", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&auth.User{
			ID:       userID,
			Email:    "user@example.com",
			Provider: auth.ProviderEmail,
		}, nil)
		store.On("SetResetToken", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
		mailer.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == "user@example.com" && p.Tag == "password_reset"
		})).Return(nil)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.ForgotPassword(context.Background(), "user@example.com")
		require.NoError(t, err)
		store.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("unknown email reports success", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, auth.ErrUserNotFound)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.ForgotPassword(context.Background(), "nobody@example.com")
		assert.NoError(t, err)
		mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("external provider account reports success without email", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(&auth.User{
			ID:       uuid.New(),
			Email:    "google@example.com",
			Provider: auth.ProviderGoogle,
		}, nil)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.ForgotPassword(context.Background(), "google@example.com")
		assert.NoError(t, err)
		store.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("storage failure reports success", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		mailer := new(auth.MockEmailSender)
		store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(&auth.User{
			ID:       uuid.New(),
			Email:    "user@example.com",
			Provider: auth.ProviderEmail,
		}, nil)
		store.On("SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		svc := auth.NewService(store, newTestTokens(t), mailer, "https://app.example.com")

		err := svc.ForgotPassword(context.Background(), "user@example.com")
		assert.NoError(t, err)
		mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("ConsumeResetToken", mock.Anything, "valid-token", mock.MatchedBy(func(hash []byte) bool {
			return bcrypt.CompareHashAndPassword(hash, []byte("new-password1")) == nil
		})).Return(&auth.User{ID: uuid.New()}, nil)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com",
			auth.WithBcryptCost(bcrypt.MinCost))

		err := svc.ResetPassword(context.Background(), "valid-token", "new-password1")
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("unknown or expired token", func(t *testing.T) {
		t.Parallel()

		store := new(auth.MockUserStore)
		store.On("ConsumeResetToken", mock.Anything, "bogus", mock.Anything).Return(nil, auth.ErrUserNotFound)

		svc := auth.NewService(store, newTestTokens(t), new(auth.MockEmailSender), "https://app.example.com",
			auth.WithBcryptCost(bcrypt.MinCost))

		err := svc.ResetPassword(context.Background(), "bogus", "new-password1")
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})
}

func TestMemoryDenylist(t *testing.T) {
	t.Parallel()

	t.Run("revoked until expiry", func(t *testing.T) {
		t.Parallel()

		dl := auth.NewMemoryDenylist()
		ctx := context.Background()

		require.NoError(t, dl.Revoke(ctx, "jti-1", time.Hour))
		revoked, err := dl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = dl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("entry expires", func(t *testing.T) {
		t.Parallel()

		dl := auth.NewMemoryDenylist()
		ctx := context.Background()

		require.NoError(t, dl.Revoke(ctx, "short", 10*time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		revoked, err := dl.IsRevoked(ctx, "short")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
