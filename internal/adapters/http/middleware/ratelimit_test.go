package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Refills(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Take("1.2.3.4")
	require.True(t, ok)
	ok, _ = rl.Take("1.2.3.4")
	require.True(t, ok)

	ok, wait := rl.Take("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	ok, _ = rl.Take("5.6.7.8")
	assert.True(t, ok, "other clients have their own bucket")

	now = now.Add(250 * time.Millisecond)
	ok, _ = rl.Take("1.2.3.4")
	assert.False(t, ok, "half a token is not enough")

	now = now.Add(250 * time.Millisecond)
	ok, _ = rl.Take("1.2.3.4")
	assert.True(t, ok)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, rl.Sweep(5*time.Minute))
}

func TestRateLimiter_BurstCapped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	rl.Take("a")
	now = now.Add(time.Hour)
	ok, _ := rl.Take("a")
	require.True(t, ok)
	ok, _ = rl.Take("a")
	assert.False(t, ok, "an idle hour still refills only one burst")
}

func TestRateLimit_Returns429WithRetryAfter(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, time.Hour))(statusHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodPost, "/profile", nil)
	req2.RemoteAddr = "10.0.0.1:6000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req2)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "port must not split the bucket")
	assert.Equal(t, "3600", rr.Header().Get("Retry-After"))
}
