package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/api/middleware"
	"fleet-monitor/internal/api/routes"
	"fleet-monitor/internal/config"
	"fleet-monitor/internal/repository"
	"fleet-monitor/internal/services"
	"fleet-monitor/internal/websocket"
	"fleet-monitor/pkg/cleanup"
	"fleet-monitor/pkg/database"
	applog "fleet-monitor/pkg/logger"
	"fleet-monitor/pkg/ratelimit"
	"fleet-monitor/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var (
		db     *mongo.Database
		stores repository.Stores
	)

	switch cfg.StoreBackend {
	case config.BackendMongo:
		var err error
		db, err = database.Connect(ctx, cfg.MongoURI, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Disconnect(db.Client())
		stores = repository.NewMongoStores(db, cfg.TelemetryRetention)
	default:
		stores = repository.NewMemoryStores(cfg.TelemetryRetention)
	}
	logger.Info("Store ready", zap.String("backend", cfg.StoreBackend), zap.Int("telemetry_retention", cfg.TelemetryRetention))

	if cfg.SeedDemoFleet {
		seeded, err := repository.SeedDemoFleet(ctx, stores.Vehicles)
		if err != nil {
			return fmt.Errorf("seed demo fleet: %w", err)
		}
		logger.Info("Demo fleet seeded", zap.Int("vehicles", seeded))
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(cfg.Redis, logger)
		defer redisClient.Close()
	}

	limiter := newRateLimiter(ctx, cfg, redisClient, logger)
	if limiter != nil {
		defer limiter.Close()
	}

	stream := websocket.NewManager(logger, cfg.AllowedOrigins)
	if err := stream.Start(); err != nil {
		return fmt.Errorf("start alert stream: %w", err)
	}
	defer stream.Stop()

	alertService := services.NewAlertService(stores.Alerts, logger)
	alertService.SetNotifier(stream)

	detector := analytics.NewDetector(analytics.DefaultThresholds)
	telemetryService := services.NewTelemetryService(stores.Telemetry, detector, alertService, logger)
	fleetService := services.NewFleetService(stores, logger)
	maintenanceService := services.NewMaintenanceService(stores.Vehicles, stores.Telemetry, cfg.Maintenance)

	janitor := cleanup.NewCleanupService(alertService, cfg.AlertRetention, cfg.CleanupInterval, logger)
	go janitor.Start()
	defer janitor.Stop()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger), middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	routes.SetupRoutes(router, routes.Dependencies{
		Backend:     cfg.StoreBackend,
		DB:          db,
		Redis:       redisClient,
		Limiter:     limiter,
		Stream:      stream,
		Logger:      logger,
		Telemetry:   telemetryService,
		Alerts:      alertService,
		Fleet:       fleetService,
		Maintenance: maintenanceService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRateLimiter returns nil when rate limiting is disabled. A redis backend
// whose server is unreachable at startup falls back to the memory limiter.
func newRateLimiter(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) ratelimit.RateLimiter {
	if !cfg.RateLimit.Enabled {
		logger.Info("Rate limiting disabled")
		return nil
	}

	limitCfg := ratelimit.DefaultConfig()

	if cfg.RateLimit.Backend == config.BackendRedis && redisClient != nil {
		if redisClient.IsConnected() {
			limiter := ratelimit.NewRedisRateLimiter(redisClient.GetClient(), limitCfg)
			if err := limiter.LoadCustomLimits(ctx); err != nil {
				logger.Warn("Failed to load custom rate limits", zap.Error(err))
			}
			logger.Info("Rate limiting enabled", zap.String("backend", config.BackendRedis))
			return limiter
		}
		logger.Warn("Redis unavailable, using in-memory rate limiter")
	}

	logger.Info("Rate limiting enabled", zap.String("backend", config.BackendMemory))
	return ratelimit.NewMemoryRateLimiter(limitCfg)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-API-Key", "X-Request-ID", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Burst", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	// Wildcard origin is for development; credentials cannot be combined with it.
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}
