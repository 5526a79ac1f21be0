package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authgate/pkg/jwt"
	"github.com/dmitrymomot/authgate/pkg/logger"
)

// ExternalProfile is the normalized identity returned by a provider adapter.
type ExternalProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	AvatarURL     string
}

// ProviderAdapter hides provider-specific OAuth mechanics from the service:
// building the authorization URL, exchanging the code, and fetching the
// profile. Adapters map transport failures to ErrTokenExchangeFailed and a
// provider 401 to ErrExternalTokenInvalid.
type ProviderAdapter interface {
	Provider() Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (accessToken string, err error)
	FetchProfile(ctx context.Context, accessToken string) (ExternalProfile, error)
}

// OAuthService drives the OAuth login flow: stateless CSRF protection via a
// signed state token, code exchange, and account resolution with linking.
type OAuthService struct {
	store   UserStore
	tokens  *jwt.Service
	adapter ProviderAdapter
	logger  *slog.Logger
}

// OAuthOption configures the OAuth service during construction.
type OAuthOption func(*OAuthService)

// WithOAuthLogger sets a custom logger for the OAuth service.
func WithOAuthLogger(l *slog.Logger) OAuthOption {
	return func(s *OAuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewOAuthService creates an OAuth login service for the adapter's provider.
func NewOAuthService(store UserStore, tokens *jwt.Service, adapter ProviderAdapter, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		store:   store,
		tokens:  tokens,
		adapter: adapter,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthURL builds the provider authorization URL with a signed state token as
// the CSRF guard. The state is self-contained (signed claims with a random
// nonce and short expiry), so no server-side session is needed.
func (s *OAuthService) AuthURL(ctx context.Context) (authURL, state string, err error) {
	state, _, err = s.tokens.Issue(string(s.adapter.Provider()), jwt.KindOAuthState)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue state token: %w", err)
	}
	return s.adapter.AuthCodeURL(state), state, nil
}

// ValidateState verifies the signed state token returned by the provider.
// Any failure, signature, expiry or kind, collapses to ErrInvalidOAuthState.
func (s *OAuthService) ValidateState(state string) error {
	if _, err := s.tokens.Parse(state, jwt.KindOAuthState); err != nil {
		return ErrInvalidOAuthState
	}
	return nil
}

// HandleCallback completes the OAuth flow after the provider redirects back:
// state check, code exchange, profile fetch, account resolution, token issue.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*AuthResult, error) {
	if err := s.ValidateState(state); err != nil {
		return nil, err
	}

	accessToken, err := s.adapter.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, ErrTokenExchangeFailed) {
			return nil, ErrTokenExchangeFailed
		}
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	profile, err := s.adapter.FetchProfile(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrExternalTokenInvalid) {
			return nil, ErrExternalTokenInvalid
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("invalid provider profile: missing id or email")
	}

	// Only pre-verified external identities are trusted; an unverified email
	// could be claimed by anyone at the provider.
	if !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResult{Tokens: pair, User: user.Projection()}, nil
}

// findOrCreateUser resolves the external identity to a local account:
// already linked accounts are returned as-is, an email-provider account with
// the same address is linked (never silently merged across two external
// providers), and an unknown identity creates a pre-verified account.
func (s *OAuthService) findOrCreateUser(ctx context.Context, profile ExternalProfile) (*User, error) {
	user, err := s.store.GetUserByExternalID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check external id: %w", err)
	}

	existing, err := s.store.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		if existing.Provider != ProviderEmail {
			return nil, ErrAccountLinkingConflict
		}
		linked, err := s.store.LinkExternalAccount(ctx, existing.ID, profile.ID, profile.AvatarURL)
		if err != nil {
			return nil, fmt.Errorf("failed to link external account: %w", err)
		}
		s.logger.Info("linked external account",
			logger.UserID(linked.ID.String()),
			slog.String("provider", string(s.adapter.Provider())),
			logger.Component("oauth"),
		)
		return linked, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	now := time.Now()
	user = &User{
		ID:              uuid.New(),
		Email:           profile.Email,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		Provider:        s.adapter.Provider(),
		ExternalID:      profile.ID,
		AvatarURL:       profile.AvatarURL,
		IsEmailVerified: true,
		IsActive:        true,
		Role:            RoleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
