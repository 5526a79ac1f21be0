// Package auth implements the authentication core: registration, login,
// refresh-token rotation, email verification, password reset, OAuth account
// resolution and the request-time access guard.
//
// The package owns no persistence. Users live behind the UserStore
// interface, refresh-token revocation behind the Denylist interface, and
// outbound mail behind the email.EmailSender interface. Token material is
// either stateless (signed claims, pkg/jwt) or a one-time opaque lookup key
// stored inline on the user record (pkg/token).
//
// Security-sensitive failures deliberately collapse multiple internal causes
// into one sentinel: login returns ErrInvalidCredentials for unknown emails
// and wrong passwords alike, Refresh returns ErrInvalidRefreshToken for
// every trust failure, and ForgotPassword always reports success.
package auth
