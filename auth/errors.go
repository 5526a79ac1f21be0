package auth

import "errors"

// General authentication errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongAuthProvider  = errors.New("account uses a different sign-in method")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Token-related errors.
var (
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrInvalidVerificationToken = errors.New("invalid or expired email verification token")
	ErrInvalidResetToken        = errors.New("invalid or expired password reset token")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
)

// OAuth-specific errors.
var (
	ErrInvalidOAuthState      = errors.New("invalid OAuth state")
	ErrTokenExchangeFailed    = errors.New("authorization code exchange failed")
	ErrExternalTokenInvalid   = errors.New("provider rejected the access token")
	ErrEmailNotVerified       = errors.New("email not verified by provider")
	ErrAccountLinkingConflict = errors.New("email already linked to a different provider")
)

// Infra and concurrency errors.
var (
	ErrEmailDelivery            = errors.New("failed to deliver email")
	ErrConcurrentPasswordChange = errors.New("password was changed concurrently")
)
