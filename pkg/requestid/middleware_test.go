package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authgate/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestid.FromContext(r.Context())))
	}))

	t.Run("generates id when missing", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(requestid.Header)
		require.NotEmpty(t, id)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("keeps valid incoming id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "client-id-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-id-123", rec.Header().Get(requestid.Header))
		assert.Equal(t, "client-id-123", rec.Body.String())
	})

	t.Run("replaces malformed incoming id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "bad id with spaces\n")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		id := rec.Header().Get(requestid.Header)
		require.NotEmpty(t, id)
		assert.False(t, strings.Contains(id, " "))
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, requestid.FromContext(t.Context()))
	ctx := requestid.WithContext(t.Context(), "abc")
	assert.Equal(t, "abc", requestid.FromContext(ctx))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(t.Context(), "req-42"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-42", attr.Value.String())

	_, ok = extract(t.Context())
	assert.False(t, ok)
}
