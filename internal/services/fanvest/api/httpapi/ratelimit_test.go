package httpapi

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/louisbranch/fanvest/internal/platform/requestctx"
)

func TestRateLimiterAllowPerKey(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(5), 5)
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("alice"), "request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("bob"))
}

func TestRateLimiterRetryAfter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Minute), 1)
	allowed, wait := limiter.AllowWithRetry("alice")
	assert.True(t, allowed)
	assert.Zero(t, wait)

	allowed, wait = limiter.AllowWithRetry("alice")
	assert.False(t, allowed)
	assert.Greater(t, wait, 30*time.Second)
}

func TestRateLimiterEvictsIdleKeys(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1)
	limiter.Allow("alice")
	limiter.evict(time.Now().Add(time.Second))
	assert.Empty(t, limiter.limiters)
}

func TestLimitKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/raise", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "ip:10.0.0.7", limitKey(req))

	req = req.WithContext(requestctx.WithAccount(req.Context(), "alice"))
	assert.Equal(t, "account:alice", limitKey(req))
}
