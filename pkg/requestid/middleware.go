// Package requestid threads a correlation id through each request: taken from
// the X-Request-ID header when a trusted shape is provided, generated
// otherwise, echoed back on the response, and exposed via the context.
package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the request/response header carrying the correlation id.
const Header = "X-Request-ID"

const maxIDLength = 128

var validIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Middleware ensures every request carries a correlation id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !isValid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validIDRegex.MatchString(id)
}
