package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// idleBucketTTL is how long an unused bucket survives a cleanup sweep.
const idleBucketTTL = time.Hour

// MemoryRateLimiter implements RateLimiter with process-local token buckets.
type MemoryRateLimiter struct {
	config       *Config
	stats        *RateLimiterStats
	customLimits map[string]map[string]RateLimit // clientID -> endpoint -> limit
	tokens       map[string]*TokenBucket         // clientID:endpoint -> bucket
	mu           sync.RWMutex
	now          func() time.Time
	done         chan struct{}
	closeOnce    sync.Once
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryRateLimiter{
		config:       config,
		stats:        &RateLimiterStats{},
		customLimits: make(map[string]map[string]RateLimit),
		tokens:       make(map[string]*TokenBucket),
		now:          time.Now,
		done:         make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go limiter.cleanupLoop()
	}

	return limiter
}

// Allow takes one token from the client's bucket for endpoint.
func (r *MemoryRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	key := fmt.Sprintf("%s:%s", clientID, endpoint)

	r.mu.Lock()
	defer r.mu.Unlock()

	limit := r.limitLocked(clientID, endpoint)
	bucket := r.getOrCreateTokenBucket(key, limit)
	now := r.now()
	bucket.LastUsed = now

	// Refill whole tokens only and carry the remainder forward so frequent
	// callers still accumulate credit.
	interval := refillInterval(limit)
	if elapsed := now.Sub(bucket.LastRefill); elapsed >= interval {
		earned := int(elapsed / interval)
		bucket.Tokens = min(bucket.Capacity, bucket.Tokens+earned)
		bucket.LastRefill = bucket.LastRefill.Add(time.Duration(earned) * interval)
		if bucket.Tokens == bucket.Capacity {
			bucket.LastRefill = now
		}
	}

	if bucket.Tokens > 0 {
		bucket.Tokens--
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.BlockedRequests, 1)
	wait := interval - now.Sub(bucket.LastRefill)
	if wait <= 0 {
		wait = interval
	}
	return false, wait, nil
}

func refillInterval(limit RateLimit) time.Duration {
	if limit.RequestsPerMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(limit.RequestsPerMinute)
}

// LimitFor returns the limit that applies to clientID on endpoint.
func (r *MemoryRateLimiter) LimitFor(clientID, endpoint string) RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limitLocked(clientID, endpoint)
}

func (r *MemoryRateLimiter) limitLocked(clientID, endpoint string) RateLimit {
	if clientLimits, exists := r.customLimits[clientID]; exists {
		if limit, exists := clientLimits[endpoint]; exists {
			return limit
		}
	}
	return r.config.LimitFor(endpoint)
}

func (r *MemoryRateLimiter) getOrCreateTokenBucket(key string, limit RateLimit) *TokenBucket {
	if bucket, exists := r.tokens[key]; exists {
		return bucket
	}

	now := r.now()
	bucket := &TokenBucket{
		Capacity:   limit.BurstSize,
		Tokens:     limit.BurstSize,
		RefillRate: limit.RequestsPerMinute,
		LastRefill: now,
		LastUsed:   now,
	}

	r.tokens[key] = bucket
	return bucket
}

// GetLimits returns the category defaults overlaid with clientID's custom limits.
func (r *MemoryRateLimiter) GetLimits(clientID string) map[string]RateLimit {
	limits := make(map[string]RateLimit)

	for endpoint, limit := range r.config.DefaultLimits {
		limits[endpoint] = limit
	}

	r.mu.RLock()
	if clientLimits, exists := r.customLimits[clientID]; exists {
		for endpoint, limit := range clientLimits {
			limits[endpoint] = limit
		}
	}
	r.mu.RUnlock()

	return limits
}

// SetCustomLimit overrides the limit for one client and endpoint. Any
// existing bucket is dropped so the new capacity applies immediately.
func (r *MemoryRateLimiter) SetCustomLimit(clientID string, endpoint string, limit RateLimit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.customLimits[clientID] == nil {
		r.customLimits[clientID] = make(map[string]RateLimit)
	}

	r.customLimits[clientID][endpoint] = limit
	delete(r.tokens, fmt.Sprintf("%s:%s", clientID, endpoint))
	return nil
}

// GetStats returns current rate limiter statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
		ActiveClients:   len(r.tokens),
	}
	if stats.TotalRequests > 0 {
		stats.BlockedPercent = float64(stats.BlockedRequests) / float64(stats.TotalRequests) * 100
	}

	return stats
}

// Close stops the cleanup loop.
func (r *MemoryRateLimiter) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}

func (r *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep removes buckets that have not been used within idleBucketTTL.
func (r *MemoryRateLimiter) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, bucket := range r.tokens {
		if now.Sub(bucket.LastUsed) > idleBucketTTL {
			delete(r.tokens, key)
			removed++
		}
	}
	return removed
}
