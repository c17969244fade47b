package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// fixedWindowScript counts requests per window atomically. It returns
// {allowed, milliseconds until the window resets}.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local burst_size = tonumber(ARGV[1])
	local window_size = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	local window_start = tonumber(redis.call('HGET', key, 'window_start')) or now

	if now - window_start >= window_size then
		count = 0
		window_start = now
	end

	local allowed = count < burst_size
	if allowed then
		count = count + 1
	end

	local reset_ms = 0
	if not allowed then
		reset_ms = (window_start + window_size) - now
	end

	redis.call('HSET', key, 'count', count, 'window_start', window_start)
	redis.call('PEXPIRE', key, window_size + 1000)

	return {allowed and 1 or 0, reset_ms}
`)

// RedisRateLimiter implements RateLimiter with counters shared across
// server replicas through Redis.
type RedisRateLimiter struct {
	client       *redis.Client
	config       *Config
	stats        *RateLimiterStats
	customLimits map[string]map[string]RateLimit // clientID -> endpoint -> limit
	mu           sync.RWMutex
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &RedisRateLimiter{
		client:       client,
		config:       config,
		stats:        &RateLimiterStats{},
		customLimits: make(map[string]map[string]RateLimit),
	}
}

// Allow counts the request against the client's window for endpoint.
func (r *RedisRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.LimitFor(clientID, endpoint)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, endpoint)

	allowed, resetTime, err := r.checkWindow(key, limit)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	if !allowed {
		atomic.AddInt64(&r.stats.BlockedRequests, 1)
		return false, resetTime, nil
	}

	return true, 0, nil
}

func (r *RedisRateLimiter) checkWindow(key string, limit RateLimit) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	window := limit.WindowSize
	if window <= 0 {
		window = time.Minute
	}

	result, err := fixedWindowScript.Run(ctx, r.client, []string{key},
		limit.BurstSize,
		window.Milliseconds(),
		time.Now().UnixMilli()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected script result: %v", result)
	}

	return result[0] == 1, time.Duration(result[1]) * time.Millisecond, nil
}

// LimitFor returns the limit that applies to clientID on endpoint.
func (r *RedisRateLimiter) LimitFor(clientID, endpoint string) RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if clientLimits, exists := r.customLimits[clientID]; exists {
		if limit, exists := clientLimits[endpoint]; exists {
			return limit
		}
	}
	return r.config.LimitFor(endpoint)
}

// GetLimits returns the category defaults overlaid with clientID's custom limits.
func (r *RedisRateLimiter) GetLimits(clientID string) map[string]RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limits := make(map[string]RateLimit)
	for endpoint, limit := range r.config.DefaultLimits {
		limits[endpoint] = limit
	}
	if clientLimits, exists := r.customLimits[clientID]; exists {
		for endpoint, limit := range clientLimits {
			limits[endpoint] = limit
		}
	}

	return limits
}

// SetCustomLimit overrides a limit and persists the client's overrides so
// other replicas pick them up through LoadCustomLimits.
func (r *RedisRateLimiter) SetCustomLimit(clientID string, endpoint string, limit RateLimit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.customLimits[clientID] == nil {
		r.customLimits[clientID] = make(map[string]RateLimit)
	}
	r.customLimits[clientID][endpoint] = limit

	data, err := json.Marshal(r.customLimits[clientID])
	if err != nil {
		return fmt.Errorf("failed to marshal custom limits: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.customKey(clientID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to persist custom limits: %w", err)
	}

	return nil
}

func (r *RedisRateLimiter) customKey(clientID string) string {
	return r.config.RedisKeyPrefix + "custom:" + clientID
}

// LoadCustomLimits loads persisted overrides, typically once at startup.
func (r *RedisRateLimiter) LoadCustomLimits(ctx context.Context) error {
	prefix := r.config.RedisKeyPrefix + "custom:"
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()

	r.mu.Lock()
	defer r.mu.Unlock()

	for iter.Next(ctx) {
		key := iter.Val()
		clientID := strings.TrimPrefix(key, prefix)

		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var limits map[string]RateLimit
		if err := json.Unmarshal(data, &limits); err != nil {
			continue
		}

		r.customLimits[clientID] = limits
	}

	return iter.Err()
}

// GetStats returns current rate limiter statistics
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
		ActiveClients:   len(r.customLimits),
	}
	if stats.TotalRequests > 0 {
		stats.BlockedPercent = float64(stats.BlockedRequests) / float64(stats.TotalRequests) * 100
	}

	return stats
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *RedisRateLimiter) Close() error {
	return nil
}
