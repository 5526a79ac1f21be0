package redis

import "errors"

var (
	ErrInvalidConnectionURL = errors.New("redis: invalid connection url")
	ErrNotReady             = errors.New("redis: server not ready")
	ErrHealthcheckFailed    = errors.New("redis: healthcheck failed")
)
