package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authgate/auth"
	"github.com/dmitrymomot/authgate/pkg/clientip"
	"github.com/dmitrymomot/authgate/pkg/logger"
	"github.com/dmitrymomot/authgate/pkg/validator"
)

// AuthHandlers serves the password-based authentication endpoints.
type AuthHandlers struct {
	svc *auth.Service
	log *slog.Logger
}

// NewAuthHandlers creates the handler set for the auth service.
func NewAuthHandlers(svc *auth.Service, log *slog.Logger) *AuthHandlers {
	if log == nil {
		log = logger.Discard()
	}
	return &AuthHandlers{svc: svc, log: log}
}

// respondError writes the mapped error response. Validation failures become
// 422 with per-field details; everything else goes through the sentinel table,
// and server-side failures are logged with their real cause before the detail
// is replaced by a generic message.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		details := make(map[string][]string, len(ve))
		for _, e := range ve {
			details[e.Field] = append(details[e.Field], e.Message)
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Error: ErrorDetail{
			Code:    "validation_failed",
			Message: "request validation failed",
			Details: details,
		}})
		return
	}
	if errors.Is(err, errInvalidJSON) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", errInvalidJSON.Error())
		return
	}

	he := classify(err)
	switch {
	case he.Status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
			logger.Component("api"),
		)
	case he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden:
		log.WarnContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.String("code", he.Code),
			slog.String("client_ip", clientip.FromContext(r.Context())),
			logger.Component("api"),
		)
	}
	writeError(w, he.Status, he.Code, he.Message)
}

func (h *AuthHandlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, h.log, err)
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[registerRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.svc.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[loginRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[refreshRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandlers) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[emailRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.SendVerificationEmail(r.Context(), req.Email); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *AuthHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[verifyEmailRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.verifyEmailToken(w, r, req.Token)
}

// VerifyEmailByPath serves the link clicked from the verification email.
func (h *AuthHandlers) VerifyEmailByPath(w http.ResponseWriter, r *http.Request) {
	h.verifyEmailToken(w, r, chi.URLParam(r, "token"))
}

func (h *AuthHandlers) verifyEmailToken(w http.ResponseWriter, r *http.Request, token string) {
	if token == "" {
		h.handleError(w, r, auth.ErrInvalidVerificationToken)
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), token); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[emailRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, err := bindRequest[resetPasswordRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.resetPassword(w, r, req.Token, req.Password)
}

// ResetPasswordByPath accepts the token from the emailed link's path and the
// new password from the body.
func (h *AuthHandlers) ResetPasswordByPath(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		h.handleError(w, r, auth.ErrInvalidResetToken)
		return
	}

	req, err := bindRequest[newPasswordRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.resetPassword(w, r, token, req.Password)
}

func (h *AuthHandlers) resetPassword(w http.ResponseWriter, r *http.Request, token, password string) {
	if err := h.svc.ResetPassword(r.Context(), token, password); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.handleError(w, r, auth.ErrUnauthorized)
		return
	}

	profile, err := h.svc.Profile(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			err = auth.ErrUnauthorized
		}
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.handleError(w, r, auth.ErrUnauthorized)
		return
	}

	req, err := bindRequest[changePasswordRequest](r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), principal.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "changed"})
}
