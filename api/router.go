package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authgate/auth"
	"github.com/dmitrymomot/authgate/pkg/clientip"
	"github.com/dmitrymomot/authgate/pkg/jwt"
	"github.com/dmitrymomot/authgate/pkg/requestid"
)

// Healthcheck probes one dependency; a nil probe is skipped.
type Healthcheck func(context.Context) error

// RouterConfig wires the handler sets and middleware into the HTTP router.
type RouterConfig struct {
	Auth   *AuthHandlers
	OAuth  *OAuthHandlers
	Tokens *jwt.Service
	Store  auth.UserStore

	// Healthchecks run on /healthz, keyed by dependency name.
	Healthchecks map[string]Healthcheck
}

// NewRouter builds the service router: public auth endpoints, the Google
// OAuth flow, guarded profile endpoints and the readiness probe.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", cfg.Auth.Register)
		ar.Post("/login", cfg.Auth.Login)
		ar.Post("/refresh-token", cfg.Auth.Refresh)
		ar.Post("/send-verification-email", cfg.Auth.SendVerificationEmail)
		ar.Post("/verify-email", cfg.Auth.VerifyEmail)
		ar.Get("/verify-email/{token}", cfg.Auth.VerifyEmailByPath)
		ar.Post("/forgot-password", cfg.Auth.ForgotPassword)
		ar.Post("/reset-password", cfg.Auth.ResetPassword)
		ar.Post("/reset-password/{token}", cfg.Auth.ResetPasswordByPath)

		if cfg.OAuth != nil {
			ar.Route("/oauth/google", func(gr chi.Router) {
				gr.Get("/", cfg.OAuth.Begin)
				gr.Post("/callback", cfg.OAuth.Callback)
			})
		}
	})

	r.Group(func(gr chi.Router) {
		gr.Use(auth.Guard(cfg.Tokens))
		gr.Get("/me", cfg.Auth.Me)

		// Password changes additionally require a verified address so a
		// hijacked unverified account cannot lock the real owner out.
		gr.With(auth.RequireVerified(cfg.Store)).
			Post("/me/change-password", cfg.Auth.ChangePassword)
	})

	r.Get("/healthz", healthzHandler(cfg.Healthchecks))

	return r
}

func healthzHandler(checks map[string]Healthcheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = "unhealthy"
				continue
			}
			result[name] = "ok"
		}
		writeJSON(w, status, result)
	}
}
