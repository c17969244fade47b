package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 1000, cfg.TelemetryRetention)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Zero(t, cfg.AlertRetention)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.True(t, cfg.SeedDemoFleet)
	assert.Equal(t, 95.0, cfg.Maintenance.AvgEngineTemp)
	assert.Equal(t, 150000.0, cfg.Maintenance.Odometer)
	assert.Equal(t, 12.5, cfg.Maintenance.AvgBatteryVoltage)
	assert.Equal(t, 100, cfg.Maintenance.Window)
	assert.Equal(t, 90, cfg.Maintenance.DefaultDays)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/fleet")
	t.Setenv("TELEMETRY_RETENTION", "500")
	t.Setenv("ALERT_RETENTION_DAYS", "7")
	t.Setenv("CLEANUP_INTERVAL", "15m")
	t.Setenv("MAINTENANCE_TEMP_THRESHOLD", "92.5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example,")
	t.Setenv("RATE_LIMIT_ENABLED", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, 500, cfg.TelemetryRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.AlertRetention)
	assert.Equal(t, 15*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 92.5, cfg.Maintenance.AvgEngineTemp)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:       BackendMemory,
			TelemetryRetention: 1000,
			RateLimit:          RateLimitConfig{Enabled: true, Backend: BackendMemory},
			CleanupInterval:    time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }, "unknown STORE_BACKEND"},
		{"mongo without uri", func(c *Config) { c.StoreBackend = BackendMongo }, "MONGO_URI is required"},
		{"zero retention", func(c *Config) { c.TelemetryRetention = 0 }, "TELEMETRY_RETENTION"},
		{"redis limiter without redis", func(c *Config) { c.RateLimit.Backend = BackendRedis }, "RATE_LIMIT_BACKEND=redis"},
		{"unknown limiter", func(c *Config) { c.RateLimit.Backend = "etcd" }, "unknown RATE_LIMIT_BACKEND"},
		{"retention without interval", func(c *Config) {
			c.AlertRetention = time.Hour
			c.CleanupInterval = 0
		}, "CLEANUP_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.Maintenance.Window = 100
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
