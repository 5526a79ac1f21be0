// Package api exposes the authentication service over JSON HTTP. Every
// response uses the same envelope: payloads at the top level, failures as
// {"error":{"code","message"}} with stable machine-readable codes.
package api
