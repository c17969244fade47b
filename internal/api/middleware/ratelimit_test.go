package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-monitor/pkg/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLimitConfig() *ratelimit.Config {
	config := ratelimit.DefaultConfig()
	config.RedisKeyPrefix = "test_ratelimit:"
	config.CleanupInterval = 0
	config.DefaultLimits[ratelimit.CategoryDefault] = ratelimit.RateLimit{RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute}
	config.DefaultLimits[ratelimit.CategoryAlertsAck] = ratelimit.RateLimit{RequestsPerMinute: 1, BurstSize: 1, WindowSize: time.Minute}
	return config
}

func newLimitedRouter(limiter ratelimit.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api/v1")
	api.Use(RateLimitMiddleware(limiter, zap.NewNop()))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	api.GET("/vehicles", ok)
	api.POST("/alerts/:id/acknowledge", ok)
	api.GET("/other", ok)

	return router
}

func setupRedisRouter(t *testing.T) *gin.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })

	return newLimitedRouter(ratelimit.NewRedisRateLimiter(client, testLimitConfig()))
}

func send(router *gin.Engine, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	req.Header.Set("User-Agent", "TestAgent/1.0")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_CategoryHeaders(t *testing.T) {
	router := setupRedisRouter(t)

	w := send(router, http.MethodGet, "/api/v1/vehicles", "192.168.1.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "20", w.Header().Get("X-RateLimit-Burst"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Window"))
}

func TestRateLimitMiddleware_AcknowledgeSharesOneBucketAcrossIDs(t *testing.T) {
	router := setupRedisRouter(t)

	first := send(router, http.MethodPost, "/api/v1/alerts/1/acknowledge", "192.168.1.2")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Burst"))

	second := send(router, http.MethodPost, "/api/v1/alerts/2/acknowledge", "192.168.1.2")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	assert.Equal(t, "Rate limit exceeded", body["message"])
}

func TestRateLimitMiddleware_DifferentClients(t *testing.T) {
	router := setupRedisRouter(t)

	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "/api/v1/alerts/1/acknowledge", "192.168.1.3").Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "/api/v1/alerts/1/acknowledge", "192.168.1.4").Code)
}

func TestRateLimitMiddleware_MemoryBackendDefaultCategory(t *testing.T) {
	limiter := ratelimit.NewMemoryRateLimiter(testLimitConfig())
	t.Cleanup(func() { limiter.Close() })
	router := newLimitedRouter(limiter)

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, send(router, http.MethodGet, "/api/v1/other", "10.0.0.1").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

type failingLimiter struct{ ratelimit.RateLimiter }

func (failingLimiter) Allow(string, string) (bool, time.Duration, error) {
	return false, 0, assert.AnError
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	router := newLimitedRouter(failingLimiter{})

	w := send(router, http.MethodGet, "/api/v1/vehicles", "10.0.0.2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rate limiter unavailable", w.Header().Get("X-RateLimit-Error"))
}

func TestGetClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"api key", map[string]string{"X-API-Key": "sim-7"}, "api:sim-7"},
		{"forwarded ip", map[string]string{"X-Forwarded-For": "10.1.1.1, 172.16.0.1"}, "anon:10.1.1.1:unknown"},
		{"real ip", map[string]string{"X-Real-IP": "10.2.2.2"}, "anon:10.2.2.2:unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientID(c))
		})
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	c.Request.Header.Set("X-Real-IP", "10.2.2.2")
	c.Request.Header.Set("User-Agent", "fleet-simulator/1.0")
	assert.Len(t, getClientID(c), len("anon:10.2.2.2:")+8)
}

func TestRouteTemplate(t *testing.T) {
	assert.Equal(t, "/api/v1/alerts/*/acknowledge", routeTemplate("/api/v1/alerts/:id/acknowledge"))
	assert.Equal(t, "/api/v1/analytics/maintenance/*", routeTemplate("/api/v1/analytics/maintenance/:vehicleId"))
	assert.Equal(t, "/api/v1/status", routeTemplate("/api/v1/status"))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/api/v1/vehicles", "/api/v1/vehicles"},
		{"/api/v1/alerts/123/resolve", "/api/v1/alerts/*/resolve"},
		{"/api/v1/vehicles/VEH-1001/status", "/api/v1/vehicles/*/status"},
		{"/api/v1/analytics/maintenance/VEH-1003", "/api/v1/analytics/maintenance/*"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePath(tt.input))
		})
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"VEH-1001", true},
		{"alerts", false},
		{"user-profile", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, isID(tt.input))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(300*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1100*time.Millisecond))
}
