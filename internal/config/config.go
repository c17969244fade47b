package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"fleet-monitor/internal/analytics"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

type Config struct {
	Port           string
	GinMode        string
	StoreBackend   string
	MongoURI       string
	AllowedOrigins []string

	Redis        RedisConfig
	RedisEnabled bool

	TelemetryRetention int
	RateLimit          RateLimitConfig
	AlertRetention     time.Duration
	CleanupInterval    time.Duration
	SeedDemoFleet      bool

	Log         LogConfig
	Maintenance analytics.MaintenanceThresholds
}

type RedisConfig struct {
	Host               string
	Port               string
	Password           string
	DB                 int
	PoolSize           int
	MinIdleConns       int
	MaxRetries         int
	RetryDelay         time.Duration
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	PoolTimeout        time.Duration
	IdleTimeout        time.Duration
	IdleCheckFrequency time.Duration
	URL                string
}

type RateLimitConfig struct {
	Enabled bool
	Backend string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	defaults := analytics.DefaultMaintenanceThresholds()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		MongoURI:       os.Getenv("MONGO_URI"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		Redis: RedisConfig{
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnv("REDIS_PORT", "6379"),
			Password:           os.Getenv("REDIS_PASSWORD"),
			DB:                 getEnvInt("REDIS_DB", 0),
			PoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:       getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
			RetryDelay:         getEnvDuration("REDIS_RETRY_DELAY", time.Second),
			DialTimeout:        getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:        getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:        getEnvDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			IdleCheckFrequency: getEnvDuration("REDIS_IDLE_CHECK_FREQUENCY", time.Minute),
			URL:                os.Getenv("REDIS_URL"),
		},
		RedisEnabled: os.Getenv("REDIS_URL") != "" || os.Getenv("REDIS_HOST") != "",

		TelemetryRetention: getEnvInt("TELEMETRY_RETENTION", 1000),
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Backend: strings.ToLower(getEnv("RATE_LIMIT_BACKEND", BackendMemory)),
		},
		AlertRetention:  time.Duration(getEnvInt("ALERT_RETENTION_DAYS", 0)) * 24 * time.Hour,
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		SeedDemoFleet:   getEnvBool("SEED_DEMO_FLEET", true),

		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},

		Maintenance: analytics.MaintenanceThresholds{
			Window:             getEnvInt("MAINTENANCE_WINDOW", defaults.Window),
			AvgEngineTemp:      getEnvFloat("MAINTENANCE_TEMP_THRESHOLD", defaults.AvgEngineTemp),
			Odometer:           getEnvFloat("MAINTENANCE_ODOMETER_THRESHOLD", defaults.Odometer),
			AvgBatteryVoltage:  getEnvFloat("MAINTENANCE_BATTERY_THRESHOLD", defaults.AvgBatteryVoltage),
			DefaultDays:        getEnvInt("MAINTENANCE_DEFAULT_DAYS", defaults.DefaultDays),
			EngineTempDays:     getEnvInt("MAINTENANCE_TEMP_DAYS", defaults.EngineTempDays),
			OdometerDays:       getEnvInt("MAINTENANCE_ODOMETER_DAYS", defaults.OdometerDays),
			BatteryVoltageDays: getEnvInt("MAINTENANCE_BATTERY_DAYS", defaults.BatteryVoltageDays),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RateLimit.Enabled && !c.RedisEnabled {
			return errors.New("RATE_LIMIT_BACKEND=redis requires REDIS_URL or REDIS_HOST")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
	}

	if c.TelemetryRetention <= 0 {
		return fmt.Errorf("TELEMETRY_RETENTION must be positive, got %d", c.TelemetryRetention)
	}
	if c.Maintenance.Window <= 0 {
		return fmt.Errorf("MAINTENANCE_WINDOW must be positive, got %d", c.Maintenance.Window)
	}
	if c.AlertRetention > 0 && c.CleanupInterval <= 0 {
		return errors.New("CLEANUP_INTERVAL must be positive when ALERT_RETENTION_DAYS is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
