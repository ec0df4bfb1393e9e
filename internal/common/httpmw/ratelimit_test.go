package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
)

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	assert.False(t, rl.Enabled())
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("k"))
	}
	assert.Equal(t, 0, rl.size())
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	fixed = fixed.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refills per second at 60 rpm")
}

func TestRateLimiter_CleanupDropsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("old")
	fixed = fixed.Add(limiterIdleTTL + time.Minute)
	rl.Allow("new")
	rl.cleanup()
	assert.Equal(t, 1, rl.size())
}

func TestRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(60, 1)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	router := gin.New()
	router.Use(RateLimit(rl, logger.NewNop()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}
