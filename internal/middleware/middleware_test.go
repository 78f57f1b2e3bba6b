package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

func TestRequestIDPropagatesToContext(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRecoverReturnsInternalError(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestLoggerCapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestMutationLimitKeysByActor(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := MutationLimit(2, func(r *http.Request) string {
		return r.Header.Get("X-Actor")
	})(ok)

	do := func(method, actor string) int {
		req := httptest.NewRequest(method, "/api/v1/redemptions", nil)
		req.Header.Set("X-Actor", actor)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "a"))
	require.Equal(t, http.StatusNoContent, do(http.MethodPatch, "a"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "a"))

	// other admins and reads are unaffected
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "b"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "a"))
}

func TestSecureHeaders(t *testing.T) {
	h := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
