// Package redis wraps go-redis with health checks and automatic
// reconnection. It backs the shared rate limiter.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fleet-monitor/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	healthCheckInterval = 30 * time.Second
	pingTimeout         = 3 * time.Second
	maxReconnectBackoff = 30 * time.Second
)

type Client struct {
	client        *redis.Client
	config        config.RedisConfig
	logger        *zap.Logger
	mu            sync.RWMutex
	isConnected   bool
	reconnectChan chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient connects to Redis and starts the health check and reconnect
// loops. A failed first ping is logged, not returned; callers check
// IsConnected.
func NewClient(cfg config.RedisConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		config:        cfg,
		logger:        logger.Named("redis"),
		reconnectChan: make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
	}

	client.connect()
	go client.healthCheckLoop()
	go client.reconnectLoop()

	return client
}

// options builds client options from REDIS_URL when set, else host and port.
func (c *Client) options() *redis.Options {
	opt := &redis.Options{
		Addr:     c.address(),
		Password: c.config.Password,
		DB:       c.config.DB,
	}

	if c.config.URL != "" {
		parsed, err := redis.ParseURL(c.config.URL)
		if err != nil {
			c.logger.Warn("Invalid REDIS_URL, falling back to host:port", zap.Error(err))
		} else {
			opt = parsed
		}
	}

	opt.PoolSize = c.config.PoolSize
	opt.MinIdleConns = c.config.MinIdleConns
	opt.MaxRetries = c.config.MaxRetries
	opt.MinRetryBackoff = c.config.RetryDelay
	opt.DialTimeout = c.config.DialTimeout
	opt.ReadTimeout = c.config.ReadTimeout
	opt.WriteTimeout = c.config.WriteTimeout
	opt.PoolTimeout = c.config.PoolTimeout
	opt.ConnMaxIdleTime = c.config.IdleTimeout

	return opt
}

func (c *Client) address() string {
	return fmt.Sprintf("%s:%s", c.config.Host, c.config.Port)
}

func (c *Client) connect() {
	opt := c.options()
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(c.ctx, pingTimeout)
	defer cancel()
	err := client.Ping(ctx).Err()

	c.mu.Lock()
	c.client = client
	c.isConnected = err == nil
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Redis connection failed", zap.String("addr", opt.Addr), zap.Error(err))
		return
	}
	c.logger.Info("Connected to Redis", zap.String("addr", opt.Addr))
}

// GetClient returns the Redis client instance (thread-safe)
func (c *Client) GetClient() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// IsConnected returns the current connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// HealthCheck pings Redis and records the outcome. A failure schedules a
// reconnect.
func (c *Client) HealthCheck() HealthStatus {
	client := c.GetClient()

	status := HealthStatus{ConnectionInfo: c.address()}
	if c.config.URL != "" {
		status.ConnectionInfo = client.Options().Addr
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()
	status.IsConnected = err == nil

	c.mu.Lock()
	c.isConnected = status.IsConnected
	c.mu.Unlock()

	if err != nil {
		status.Error = err.Error()
		c.triggerReconnect()
	}

	return status
}

func (c *Client) triggerReconnect() {
	select {
	case c.reconnectChan <- struct{}{}:
	default:
	}
}

func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if status := c.HealthCheck(); !status.IsConnected {
				c.logger.Warn("Redis health check failed", zap.String("error", status.Error))
			}
		}
	}
}

// reconnectLoop rebuilds the client with exponential backoff until a ping
// succeeds.
func (c *Client) reconnectLoop() {
	backoff := time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reconnectChan:
		}

		if c.IsConnected() {
			continue
		}

		c.logger.Info("Attempting to reconnect to Redis")
		old := c.GetClient()
		c.connect()
		if old != nil {
			old.Close()
		}

		if c.IsConnected() {
			c.logger.Info("Reconnected to Redis")
			backoff = time.Second
			continue
		}

		c.logger.Warn("Redis reconnection failed", zap.Duration("retry_in", backoff))
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxReconnectBackoff)
		c.triggerReconnect()
	}
}

// Close gracefully shuts down the Redis client
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GetConnectionStats returns connection pool statistics
func (c *Client) GetConnectionStats() map[string]interface{} {
	client := c.GetClient()
	if client == nil {
		return map[string]interface{}{"error": "Redis client not initialized"}
	}

	stats := client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.IsConnected(),
	}
}
