package middleware

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fleet-monitor/internal/metrics"
	"fleet-monitor/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware rejects requests over their endpoint category's limit
// with 429. Limiter failures are logged and the request is let through.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := getClientID(c)
		endpoint := getEndpointID(c)

		allowed, resetTime, err := limiter.Allow(clientID, endpoint)
		if err != nil {
			logger.Warn("Rate limiter unavailable",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		setRateLimitHeaders(c, limiter.LimitFor(clientID, endpoint), allowed, resetTime)

		if !allowed {
			metrics.RateLimitedTotal.WithLabelValues(ratelimit.Category(endpoint)).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    "Rate limit exceeded",
				"error":      fmt.Sprintf("Too many requests. Try again in %v", resetTime.Round(time.Millisecond)),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": retryAfterSeconds(resetTime),
				"timestamp":  time.Now().UTC(),
			})
			return
		}

		c.Next()
	}
}

// getClientID identifies the caller: an API key when one is sent, otherwise
// the client IP combined with a hash of its User-Agent.
func getClientID(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return "api:" + apiKey
	}

	return fmt.Sprintf("anon:%s:%s", getClientIP(c), hashString(c.GetHeader("User-Agent")))
}

// getClientIP extracts the real client IP address
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.ClientIP()
}

func hashString(s string) string {
	if s == "" {
		return "unknown"
	}

	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// getEndpointID builds the "METHOD:/path" id the limiter keys on. Route
// parameters collapse to * so every alert or vehicle shares one bucket.
func getEndpointID(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = normalizePath(c.Request.URL.Path)
	} else {
		path = routeTemplate(path)
	}

	return c.Request.Method + ":" + path
}

// routeTemplate turns gin parameters (":id", "*rest") into *.
func routeTemplate(fullPath string) string {
	segments := strings.Split(fullPath, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// normalizePath replaces id-looking segments of an unmatched path with *.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if isID(segment) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// isID reports whether a path segment looks like a numeric, UUID or
// vehicle-style id.
func isID(s string) bool {
	if s == "" {
		return false
	}

	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}

	if len(s) == 36 && s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-' {
		return true
	}

	// VEH-1001 style: uppercase prefix, dash, digits.
	if prefix, digits, ok := strings.Cut(s, "-"); ok && prefix != "" && digits != "" {
		if strings.ToUpper(prefix) == prefix {
			if _, err := strconv.Atoi(digits); err == nil {
				return true
			}
		}
	}

	return false
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// setRateLimitHeaders sets standard rate limiting headers
func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, allowed bool, resetTime time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RequestsPerMinute))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.WindowSize.Seconds())))
	c.Header("X-RateLimit-Burst", strconv.Itoa(limit.BurstSize))

	if !allowed {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(resetTime)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetTime).Unix(), 10))
	}
}
