package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrymomot/authgate/pkg/validator"
)

var errInvalidJSON = errors.New("invalid JSON body")

// decodeJSON strictly decodes the request body into v: the content type must
// be application/json, unknown fields are rejected, and exactly one JSON
// value is allowed.
func decodeJSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return errInvalidJSON
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return errInvalidJSON
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errInvalidJSON
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (r registerRequest) Validate() error {
	return validator.Apply(
		validator.Required("email", r.Email),
		validator.ValidEmail("email", r.Email),
		validator.StrongPassword("password", r.Password),
		validator.MaxLen("first_name", r.FirstName, 100),
		validator.MaxLen("last_name", r.LastName, 100),
		validator.MaxLen("phone", r.Phone, 32),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validator.Apply(
		validator.Required("email", r.Email),
		validator.ValidEmail("email", r.Email),
		validator.Required("password", r.Password),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r refreshRequest) Validate() error {
	return validator.Apply(
		validator.Required("refresh_token", r.RefreshToken),
	)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (r emailRequest) Validate() error {
	return validator.Apply(
		validator.Required("email", r.Email),
		validator.ValidEmail("email", r.Email),
	)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (r verifyEmailRequest) Validate() error {
	return validator.Apply(
		validator.Required("token", r.Token),
	)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r resetPasswordRequest) Validate() error {
	return validator.Apply(
		validator.Required("token", r.Token),
		validator.StrongPassword("password", r.Password),
	)
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

func (r newPasswordRequest) Validate() error {
	return validator.Apply(
		validator.StrongPassword("password", r.Password),
	)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r changePasswordRequest) Validate() error {
	return validator.Apply(
		validator.Required("old_password", r.OldPassword),
		validator.StrongPassword("new_password", r.NewPassword),
	)
}

type oauthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

func (r oauthCallbackRequest) Validate() error {
	return validator.Apply(
		validator.Required("code", r.Code),
		validator.Required("state", r.State),
	)
}

// bindRequest decodes and validates in one step; the returned error is either
// errInvalidJSON or validator.ValidationErrors.
func bindRequest[T interface{ Validate() error }](r *http.Request) (T, error) {
	var req T
	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
