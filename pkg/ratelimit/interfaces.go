package ratelimit

import (
	"time"
)

// RateLimiter decides whether a client may call an endpoint. Endpoint ids
// have the form "METHOD:/normalized/path".
type RateLimiter interface {
	Allow(clientID string, endpoint string) (bool, time.Duration, error)
	// LimitFor returns the limit that applies to clientID on endpoint.
	LimitFor(clientID string, endpoint string) RateLimit
	GetLimits(clientID string) map[string]RateLimit
	SetCustomLimit(clientID string, endpoint string, limit RateLimit) error
	GetStats() RateLimiterStats
	Close() error
}

// RateLimit defines the configuration for rate limiting
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64   `json:"totalRequests"`
	BlockedRequests int64   `json:"blockedRequests"`
	BlockedPercent  float64 `json:"blockedPercent"`
	ActiveClients   int     `json:"activeClients"`
}

// TokenBucket is the per client and endpoint state of the in-memory limiter.
type TokenBucket struct {
	Capacity   int       `json:"capacity"`
	Tokens     int       `json:"tokens"`
	RefillRate int       `json:"refillRate"`
	LastRefill time.Time `json:"lastRefill"`
	LastUsed   time.Time `json:"lastUsed"`
}
