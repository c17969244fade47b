package ratelimit

import (
	"strings"
	"time"
)

// Category names for the fleet monitor API surface.
const (
	CategoryTelemetryIngest = "telemetry_ingest"
	CategoryTelemetryRead   = "telemetry"
	CategoryAlerts          = "alerts"
	CategoryAlertsCreate    = "alerts_create"
	CategoryAlertsAck       = "alerts_ack"
	CategoryVehicles        = "vehicles"
	CategoryVehiclesWrite   = "vehicles_write"
	CategoryStatus          = "status"
	CategoryAnalytics       = "analytics"
	CategoryStream          = "stream"
	CategoryHealth          = "health"
	CategoryDefault         = "default"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Default rate limits per endpoint category
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Cleanup interval for idle buckets
	CleanupInterval time.Duration `json:"cleanupInterval"`

	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// Ingest is the hot path; simulators post every couple of seconds per vehicle.
			CategoryTelemetryIngest: {RequestsPerMinute: 1200, BurstSize: 200, WindowSize: time.Minute},
			CategoryTelemetryRead:   {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},

			CategoryAlerts:       {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},
			CategoryAlertsCreate: {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			CategoryAlertsAck:    {RequestsPerMinute: 60, BurstSize: 20, WindowSize: time.Minute},

			CategoryVehicles:      {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			CategoryVehiclesWrite: {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},

			CategoryStatus:    {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			CategoryAnalytics: {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			CategoryStream:    {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},

			CategoryHealth: {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			CategoryDefault: {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// endpointCategories maps "METHOD:/path" endpoint ids to categories. A
// trailing * matches any suffix.
var endpointCategories = []struct {
	pattern  string
	category string
}{
	{"POST:/api/v1/telemetry", CategoryTelemetryIngest},
	{"GET:/api/v1/telemetry", CategoryTelemetryRead},

	{"POST:/api/v1/alerts/*/acknowledge", CategoryAlertsAck},
	{"POST:/api/v1/alerts/*/resolve", CategoryAlertsAck},
	{"GET:/api/v1/alerts/stream", CategoryStream},
	{"GET:/api/v1/alerts*", CategoryAlerts},
	{"POST:/api/v1/alerts", CategoryAlertsCreate},

	{"GET:/api/v1/vehicles*", CategoryVehicles},
	{"POST:/api/v1/vehicles", CategoryVehiclesWrite},
	{"PATCH:/api/v1/vehicles/*", CategoryVehiclesWrite},

	{"GET:/api/v1/status", CategoryStatus},
	{"GET:/api/v1/analytics/*", CategoryAnalytics},

	{"GET:/api/v1/health", CategoryHealth},
}

// GetEndpointKey maps an endpoint id of the form "METHOD:/path" to its rate
// limit category.
func (c *Config) GetEndpointKey(endpoint string) string {
	return Category(endpoint)
}

// Category maps an endpoint id to its category. Patterns are checked in
// declaration order.
func Category(endpoint string) string {
	for _, e := range endpointCategories {
		if matchesPattern(endpoint, e.pattern) {
			return e.category
		}
	}
	return CategoryDefault
}

// LimitFor resolves the default limit for an endpoint id.
func (c *Config) LimitFor(endpoint string) RateLimit {
	if limit, ok := c.DefaultLimits[c.GetEndpointKey(endpoint)]; ok {
		return limit
	}
	if limit, ok := c.DefaultLimits[CategoryDefault]; ok {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}

// matchesPattern checks a key against a pattern where * matches one path
// segment in the middle or any suffix at the end.
func matchesPattern(key, pattern string) bool {
	if key == pattern {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	before, after, _ := strings.Cut(pattern, "*")
	if !strings.HasPrefix(key, before) {
		return false
	}
	rest := key[len(before):]
	if after == "" {
		return true
	}
	// Middle wildcard: exactly one segment, then the remainder verbatim.
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 {
		return false
	}
	return rest[slash:] == after
}
