package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/backend/internal/middleware"
)

func TestAttemptLimiter_Allow(t *testing.T) {
	l := middleware.NewAttemptLimiter(3, time.Minute)

	for i := range 3 {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "budgets are per client")
}

func TestAttemptLimiter_WindowExpires(t *testing.T) {
	l := middleware.NewAttemptLimiter(1, 50*time.Millisecond)

	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func TestAttemptLimiter_DisabledWhenMaxNotPositive(t *testing.T) {
	l := middleware.NewAttemptLimiter(0, time.Minute)

	for range 100 {
		require.True(t, l.Allow("a"))
	}
}

func TestAttemptLimiter_Handler_Returns429(t *testing.T) {
	h := middleware.NewAttemptLimiter(1, time.Minute).Handler(trivialHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/trip/join", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("192.0.2.1:1234").Code)

	rec := send("192.0.2.1:5678")
	require.Equal(t, http.StatusTooManyRequests, rec.Code, "same host, different port")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "too_many_requests", body["error"]["code"])

	assert.Equal(t, http.StatusOK, send("192.0.2.2:1234").Code)
}
