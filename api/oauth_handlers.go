package api

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authgate/auth"
	"github.com/dmitrymomot/authgate/pkg/logger"
)

// OAuthHandlers serves the OAuth login endpoints for one provider.
type OAuthHandlers struct {
	svc *auth.OAuthService
	log *slog.Logger
}

// NewOAuthHandlers creates the handler set for an OAuth login service.
func NewOAuthHandlers(svc *auth.OAuthService, log *slog.Logger) *OAuthHandlers {
	if log == nil {
		log = logger.Discard()
	}
	return &OAuthHandlers{svc: svc, log: log}
}

// Begin starts the OAuth flow: the client redirects the user to auth_url and
// later posts the provider's code together with the echoed state.
func (h *OAuthHandlers) Begin(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := h.svc.AuthURL(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": authURL,
		"state":    state,
	})
}

// Callback completes the OAuth flow with the code and state returned by the
// provider.
func (h *OAuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[oauthCallbackRequest](r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	result, err := h.svc.HandleCallback(r.Context(), req.Code, req.State)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
