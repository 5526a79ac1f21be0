package jwt

import "errors"

var (
	ErrInvalidToken  = errors.New("jwt: invalid token")
	ErrMissingSecret = errors.New("jwt: missing signing secret")
	ErrSecretReuse   = errors.New("jwt: signing secret shared between token kinds")
	ErrUnknownKind   = errors.New("jwt: unknown token kind")
)
