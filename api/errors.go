package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authgate/auth"
)

// httpError carries an HTTP status and a stable error code. Handlers map the
// auth package sentinels through sentinelErrors so the wire contract stays
// decoupled from internal error text.
type httpError struct {
	Status  int
	Code    string
	Message string
}

var sentinelErrors = []struct {
	err    error
	status int
	code   string
}{
	{auth.ErrEmailAlreadyExists, http.StatusConflict, "email_already_exists"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrWrongAuthProvider, http.StatusUnauthorized, "wrong_auth_provider"},
	{auth.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token"},
	{auth.ErrInvalidVerificationToken, http.StatusUnauthorized, "invalid_verification_token"},
	{auth.ErrInvalidResetToken, http.StatusUnauthorized, "invalid_reset_token"},
	{auth.ErrEmailAlreadyVerified, http.StatusConflict, "email_already_verified"},
	{auth.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{auth.ErrInvalidOAuthState, http.StatusUnauthorized, "invalid_oauth_state"},
	{auth.ErrExternalTokenInvalid, http.StatusUnauthorized, "external_token_invalid"},
	{auth.ErrEmailNotVerified, http.StatusUnauthorized, "email_not_verified"},
	{auth.ErrAccountLinkingConflict, http.StatusConflict, "account_linking_conflict"},
	{auth.ErrTokenExchangeFailed, http.StatusBadGateway, "token_exchange_failed"},
	{auth.ErrEmailDelivery, http.StatusServiceUnavailable, "email_delivery_failed"},
	{auth.ErrConcurrentPasswordChange, http.StatusConflict, "concurrent_password_change"},
	{auth.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

// classify maps a service error to its wire representation. Anything not in
// the sentinel table is an internal error and its detail never leaks to the
// client.
func classify(err error) httpError {
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			return httpError{Status: s.status, Code: s.code, Message: s.err.Error()}
		}
	}
	return httpError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal server error",
	}
}
