package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedHandler(cfg RateLimitConfig) http.Handler {
	rl := NewRateLimiter(cfg)
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, Burst: 3, TTL: time.Minute})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst should pass", i+1)
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	// Near-zero refill rate so the bucket does not recover mid-test.
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, TTL: time.Minute})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	err := json.NewDecoder(rec.Body).Decode(&body)
	require.NoError(t, err)
	assert.Equal(t, "RATE_LIMITED", body["error"]["code"])
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, TTL: time.Minute})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	// Same IP is throttled.
	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.3:5678"
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// A different IP gets its own bucket.
	other := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	handler.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiter_NoPortRemoteAddr(t *testing.T) {
	handler := rateLimitedHandler(DefaultRateLimitConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.5" // no port
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, float64(20), cfg.RequestsPerSecond)
	assert.Equal(t, 40, cfg.Burst)
	assert.Equal(t, 3*time.Minute, cfg.TTL)
}
