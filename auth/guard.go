package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authgate/pkg/jwt"
)

// Principal is the authenticated identity the guard attaches to the request
// context for downstream handlers.
type Principal struct {
	UserID uuid.UUID
}

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal set by the guard.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// WithPrincipal attaches a principal to the context. Exposed for tests and
// internal wiring; request paths should rely on the guard middleware.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Guard validates bearer access tokens on protected routes. A missing
// header, an invalid token and a token of another family (refresh, OAuth
// state) are all rejected with the same 401.
func Guard(tokens *jwt.Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.Parse(raw, jwt.KindAccess)
			if err != nil {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := jwt.SetClaims(r.Context(), claims)
			ctx = WithPrincipal(ctx, Principal{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified is a secondary guard that re-fetches the authenticated
// user and requires a verified email. It must run after Guard.
func RequireVerified(store UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := store.GetUserByID(r.Context(), principal.UserID)
			if err != nil {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !user.IsEmailVerified {
				writeGuardError(w, http.StatusForbidden, "email_not_verified")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the access token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrUnauthorized
	}
	return parts[1], nil
}

func writeGuardError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": http.StatusText(status)},
	})
}
