package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuthConfig holds the configuration for the Google OAuth provider.
type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.email,https://www.googleapis.com/auth/userinfo.profile"`
}

type googleAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewGoogleAdapter creates the Google OAuth provider adapter.
func NewGoogleAdapter(cfg GoogleOAuthConfig) ProviderAdapter {
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *googleAdapter) Provider() Provider {
	return ProviderGoogle
}

func (a *googleAdapter) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for an access token. Exchange
// failures are not retried within a request; the caller may restart the flow.
func (a *googleAdapter) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return "", ErrTokenExchangeFailed
	}
	return tok.AccessToken, nil
}

// FetchProfile fetches the Google userinfo profile. A 401 from the provider
// maps to ErrExternalTokenInvalid.
func (a *googleAdapter) FetchProfile(ctx context.Context, accessToken string) (ExternalProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return ExternalProfile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ExternalProfile{}, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ExternalProfile{}, ErrExternalTokenInvalid
	case resp.StatusCode != http.StatusOK:
		return ExternalProfile{}, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return ExternalProfile{}, fmt.Errorf("failed to decode google profile: %w", err)
	}

	return ExternalProfile{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		FirstName:     u.GivenName,
		LastName:      u.FamilyName,
		AvatarURL:     u.Picture,
	}, nil
}

// Compile-time interface assertion
var _ ProviderAdapter = (*googleAdapter)(nil)
