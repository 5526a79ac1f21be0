package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the token families issued by the service. Each kind is
// signed with its own secret so a compromised key never crosses families.
type Kind string

const (
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
	KindOAuthState Kind = "oauth_state"
)

// Claims carries the registered JWT claims plus the token kind. Subject holds
// the user id for access/refresh tokens; ID (jti) is a random nonce used for
// refresh-token revocation and OAuth state uniqueness.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// Pair bundles the two application tokens returned by authentication flows.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Config holds per-kind signing secrets and lifetimes. State tokens get their
// own secret because state values transit through URLs and logs and are more
// exposed than either application token.
type Config struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	StateSecret   string        `env:"JWT_STATE_SECRET,required"`
	StateTTL      time.Duration `env:"JWT_STATE_TTL" envDefault:"10m"`
}

// Service signs and verifies HS256 tokens, one secret and TTL per kind.
type Service struct {
	secrets map[Kind][]byte
	ttls    map[Kind]time.Duration
}

// New creates a token service from the provided configuration. It fails when
// any secret is empty or when two kinds share a secret.
func New(cfg Config) (*Service, error) {
	secrets := map[Kind][]byte{
		KindAccess:     []byte(cfg.AccessSecret),
		KindRefresh:    []byte(cfg.RefreshSecret),
		KindOAuthState: []byte(cfg.StateSecret),
	}
	seen := make(map[string]struct{}, len(secrets))
	for _, secret := range secrets {
		if len(secret) == 0 {
			return nil, ErrMissingSecret
		}
		if _, ok := seen[string(secret)]; ok {
			return nil, ErrSecretReuse
		}
		seen[string(secret)] = struct{}{}
	}

	return &Service{
		secrets: secrets,
		ttls: map[Kind]time.Duration{
			KindAccess:     cfg.AccessTTL,
			KindRefresh:    cfg.RefreshTTL,
			KindOAuthState: cfg.StateTTL,
		},
	}, nil
}

// Issue signs a token of the given kind for the subject. The returned claims
// include the generated jti and expiry so callers can track revocation.
func (s *Service) Issue(subject string, kind Kind) (string, Claims, error) {
	secret, ok := s.secrets[kind]
	if !ok {
		return "", Claims{}, ErrUnknownKind
	}

	now := time.Now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttls[kind])),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// IssuePair mints a fresh access+refresh token pair for the subject.
func (s *Service) IssuePair(subject string) (Pair, error) {
	access, _, err := s.Issue(subject, KindAccess)
	if err != nil {
		return Pair{}, err
	}
	refresh, _, err := s.Issue(subject, KindRefresh)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse verifies signature, expiry and kind against the expected token
// family. Every verification failure collapses to ErrInvalidToken so callers
// cannot be used as an oracle distinguishing bad signatures from expired or
// cross-family tokens.
func (s *Service) Parse(tokenString string, kind Kind) (Claims, error) {
	secret, ok := s.secrets[kind]
	if !ok {
		return Claims{}, ErrUnknownKind
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Kind != kind {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// TTL reports the configured lifetime for a token kind.
func (s *Service) TTL(kind Kind) time.Duration {
	return s.ttls[kind]
}
