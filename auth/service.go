package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authgate/pkg/email"
	"github.com/dmitrymomot/authgate/pkg/jwt"
	"github.com/dmitrymomot/authgate/pkg/logger"
)

// Config holds the orchestrator settings sourced from the environment.
// BaseURL is the public application URL verification and reset links point at.
type Config struct {
	BaseURL         string        `env:"APP_BASE_URL,required"`
	BcryptCost      int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	VerificationTTL time.Duration `env:"AUTH_VERIFICATION_TTL" envDefault:"24h"`
	ResetTTL        time.Duration `env:"AUTH_RESET_TTL" envDefault:"1h"`
}

// Service orchestrates registration, login, token refresh, email
// verification and password reset. All state coordination happens through
// the UserStore; the service itself holds no mutable state.
type Service struct {
	store           UserStore
	tokens          *jwt.Service
	mailer          email.EmailSender
	denylist        Denylist
	logger          *slog.Logger
	baseURL         string
	bcryptCost      int
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// Option configures the Service during construction.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDenylist enables refresh-token rotation with revocation. Without a
// denylist an old refresh token stays valid until its natural expiry.
func WithDenylist(d Denylist) Option {
	return func(s *Service) { s.denylist = d }
}

// WithBcryptCost sets the bcrypt work factor for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithVerificationTTL sets the lifetime of email verification tokens.
func WithVerificationTTL(ttl time.Duration) Option {
	return func(s *Service) { s.verificationTTL = ttl }
}

// WithResetTTL sets the lifetime of password reset tokens.
func WithResetTTL(ttl time.Duration) Option {
	return func(s *Service) { s.resetTTL = ttl }
}

// NewService creates the auth orchestrator.
func NewService(store UserStore, tokens *jwt.Service, mailer email.EmailSender, baseURL string, opts ...Option) *Service {
	s := &Service{
		store:           store,
		tokens:          tokens,
		mailer:          mailer,
		logger:          logger.Discard(),
		baseURL:         strings.TrimRight(baseURL, "/"),
		bcryptCost:      10,
		verificationTTL: 24 * time.Hour,
		resetTTL:        1 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new email-provider account and issues a token pair.
// A verification email is sent best-effort: delivery failure is logged and
// never rolls the registration back.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	emailAddr := strings.TrimSpace(params.Email)

	// Any existing record conflicts, regardless of its provider, so an OAuth
	// account can never be shadowed by a password registration.
	_, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:              uuid.New(),
		Email:           emailAddr,
		PasswordHash:    hash,
		FirstName:       strings.TrimSpace(params.FirstName),
		LastName:        strings.TrimSpace(params.LastName),
		Phone:           strings.TrimSpace(params.Phone),
		Provider:        ProviderEmail,
		IsEmailVerified: false,
		IsActive:        true,
		Role:            RoleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := s.issueVerification(ctx, user); err != nil {
		s.logger.Error("failed to send verification email on registration",
			logger.UserID(user.ID.String()),
			logger.Email(user.Email),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	return &AuthResult{Tokens: pair, User: user.Projection()}, nil
}

// Login authenticates an email-provider account. An unknown email and a
// wrong password yield the identical ErrInvalidCredentials so login cannot
// be used to probe which addresses exist.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// A distinguishable error here is safe: it fires only for a known email
	// and is not a credential-guessing signal.
	if user.Provider != ProviderEmail {
		return nil, ErrWrongAuthProvider
	}

	if len(user.PasswordHash) == 0 {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResult{Tokens: pair, User: user.Projection()}, nil
}

// Refresh validates a refresh token and rotates it: the presented token's
// jti is revoked until its natural expiry and a fresh pair is issued. Every
// failure collapses to ErrInvalidRefreshToken, including an access token
// presented in its place.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Parse(refreshToken, jwt.KindRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check refresh token revocation: %w", err)
		}
		if revoked {
			return nil, ErrInvalidRefreshToken
		}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if s.denylist != nil && claims.ExpiresAt != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
				// Refusing to rotate is safer than issuing a new pair while
				// the old token remains usable.
				return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
			}
		}
	}

	pair, err := s.tokens.IssuePair(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResult{Tokens: pair, User: user.Projection()}, nil
}

// Profile returns the public view of the account.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (UserProjection, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return UserProjection{}, err
	}
	return user.Projection(), nil
}

// ChangePassword updates the password of an authenticated email-provider
// account. The write is a compare-and-swap on the previously read hash, so a
// concurrent change surfaces as ErrConcurrentPasswordChange instead of being
// silently overwritten.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Provider != ProviderEmail || len(user.PasswordHash) == 0 {
		return ErrWrongAuthProvider
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.UpdatePasswordHash(ctx, userID, user.PasswordHash, newHash)
}
