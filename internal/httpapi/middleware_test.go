package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimiter(t *testing.T, cfg RateLimitConfig) *RateLimiter {
	t.Helper()
	limiter, err := NewRateLimiter(cfg)
	require.NoError(t, err)
	return limiter
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := newLimiter(t, RateLimitConfig{IPPerMinute: 1, IPBurst: 2, FormPerMinute: 1, FormBurst: 1})
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.20:4000"
	rec = serve(handler, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	limiter := newLimiter(t, RateLimitConfig{IPPerMinute: 600, IPBurst: 100, FormPerMinute: 1, FormBurst: 1})
	handler := limiter.Middleware(okHandler())

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/quote", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		if serve(handler, req).Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, limiter.formLimiter.size())
}

func TestRateLimiterHonoursTrustedProxy(t *testing.T) {
	limiter := newLimiter(t, RateLimitConfig{
		IPPerMinute:    600,
		IPBurst:        100,
		FormPerMinute:  1,
		FormBurst:      1,
		TrustedProxies: []string{"10.0.0.0/8"},
	})
	handler := limiter.Middleware(okHandler())

	post := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/quote", nil)
		req.RemoteAddr = "10.0.0.5:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		return serve(handler, req).Code
	}
	assert.Equal(t, http.StatusOK, post("203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.9"))
	assert.Equal(t, http.StatusOK, post("203.0.113.10"))
	// A spoofed leftmost entry does not move the client off its real bucket.
	assert.Equal(t, http.StatusTooManyRequests, post("198.51.100.1, 203.0.113.10"))
}

func TestNewRateLimiterRejectsBadProxy(t *testing.T) {
	_, err := NewRateLimiter(RateLimitConfig{TrustedProxies: []string{"10.0.0.0/8", "proxy.internal"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proxy.internal")
}

func TestKeyedLimiterCapsKeys(t *testing.T) {
	l := newKeyedLimiter(60, 1, 0, 0)
	l.maxKeys = 100
	for i := 0; i < 10_000; i++ {
		l.allow(fmt.Sprintf("key-%d", i))
	}
	assert.Equal(t, 100, l.size())
	assert.Contains(t, l.limiters, "key-9999")
	assert.NotContains(t, l.limiters, "key-0")
}

func TestRateLimiterFormBucket(t *testing.T) {
	limiter := newLimiter(t, RateLimitConfig{IPPerMinute: 600, IPBurst: 100, FormPerMinute: 1, FormBurst: 1})
	handler := limiter.Middleware(okHandler())

	rec := serve(handler, httptest.NewRequest(http.MethodPost, "/quote", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(handler, httptest.NewRequest(http.MethodPost, "/quote", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many submissions", decodeError(t, rec).Error.Message)

	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	trusted, err := parseTrustedProxies([]string{"10.0.0.1", "172.16.0.0/12"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"peer only", "198.51.100.7:5555", "", "198.51.100.7"},
		{"unparseable peer", "garbage", "203.0.113.9", "garbage"},
		{"untrusted peer ignores header", "198.51.100.7:5555", "203.0.113.9", "198.51.100.7"},
		{"trusted peer without header", "10.0.0.1:443", "", "10.0.0.1"},
		{"trusted peer", "10.0.0.1:443", "203.0.113.9", "203.0.113.9"},
		{"skips trusted hops", "10.0.0.1:443", "203.0.113.9, 172.16.4.4", "203.0.113.9"},
		{"rightmost untrusted wins", "10.0.0.1:443", "1.2.3.4, 203.0.113.9", "203.0.113.9"},
		{"bad hop stops the walk", "10.0.0.1:443", "203.0.113.9, nonsense", "10.0.0.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, clientIP(req, trusted))
		})
	}
}

func TestLoggingMiddlewareAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LoggingMiddleware(zap.New(core), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		w.WriteHeader(http.StatusTeapot)
	}))

	before := requestsErrors.Value()
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, before+1, requestsErrors.Value())

	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/brew", fields["path"])
		assert.EqualValues(t, http.StatusTeapot, fields["status"])
		assert.Equal(t, rec.Header().Get(requestIDHeader), fields["request_id"])
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = serve(handler, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}
