package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authgate/auth"
)

func TestGuard(t *testing.T) {
	t.Parallel()

	okHandler := func(t *testing.T, wantUserID uuid.UUID) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, wantUserID, principal.UserID)
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid access token passes", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		tokens := newTestTokens(t)
		pair, err := tokens.IssuePair(userID.String())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

		auth.Guard(tokens)(okHandler(t, userID)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		auth.Guard(newTestTokens(t))(http.NotFoundHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		auth.Guard(newTestTokens(t))(http.NotFoundHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token is not accepted as access token", func(t *testing.T) {
		t.Parallel()

		tokens := newTestTokens(t)
		pair, err := tokens.IssuePair(uuid.NewString())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)

		auth.Guard(tokens)(http.NotFoundHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")

		auth.Guard(newTestTokens(t))(http.NotFoundHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireVerified(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("verified account passes", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := new(auth.MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(&auth.User{
			ID:              userID,
			IsEmailVerified: true,
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: userID}))

		auth.RequireVerified(store)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unverified account is forbidden", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := new(auth.MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(&auth.User{
			ID:              userID,
			IsEmailVerified: false,
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: userID}))

		auth.RequireVerified(store)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "email_not_verified")
	})

	t.Run("no principal in context", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		auth.RequireVerified(new(auth.MockUserStore))(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted account", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := new(auth.MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(nil, auth.ErrUserNotFound)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: userID}))

		auth.RequireVerified(store)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
