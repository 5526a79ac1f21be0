package httpserver

import "errors"

// Sentinel errors wrapped by Run and Shutdown so callers can distinguish a
// listener that never came up from a drain that ran out of time.
var (
	ErrStart    = errors.New("httpserver: failed to start")
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
