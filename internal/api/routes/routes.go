package routes

import (
	"fleet-monitor/internal/api/handlers"
	"fleet-monitor/internal/api/middleware"
	"fleet-monitor/internal/services"
	"fleet-monitor/internal/websocket"
	"fleet-monitor/pkg/ratelimit"
	"fleet-monitor/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP surface is built from. DB,
// Redis and Limiter may be nil.
type Dependencies struct {
	Backend string
	DB      *mongo.Database
	Redis   *redis.Client
	Limiter ratelimit.RateLimiter
	Stream  *websocket.Manager
	Logger  *zap.Logger

	Telemetry   *services.TelemetryService
	Alerts      *services.AlertService
	Fleet       *services.FleetService
	Maintenance *services.MaintenanceService
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	telemetryHandler := handlers.NewTelemetryHandler(deps.Telemetry, logger)
	alertHandler := handlers.NewAlertHandler(deps.Alerts, logger)
	vehicleHandler := handlers.NewVehicleHandler(deps.Fleet, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Fleet, deps.Maintenance, logger)

	var stream handlers.ClientCounter
	if deps.Stream != nil {
		stream = deps.Stream
	}
	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.DB, deps.Redis, stream)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(deps.Limiter, logger))
	}

	api.GET("/health", healthHandler.HealthCheck)

	telemetry := api.Group("/telemetry")
	{
		telemetry.GET("", telemetryHandler.GetTelemetry)
		telemetry.POST("", telemetryHandler.IngestTelemetry)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", alertHandler.GetAlerts)
		alerts.POST("", alertHandler.CreateAlert)
		alerts.GET("/:id", alertHandler.GetAlert)
		alerts.POST("/:id/acknowledge", alertHandler.AcknowledgeAlert)
		alerts.POST("/:id/resolve", alertHandler.ResolveAlert)
	}

	if deps.Stream != nil {
		streamHandler := handlers.NewStreamHandler(deps.Stream, logger)
		api.GET("/alerts/stream", streamHandler.StreamAlerts)
		api.GET("/alerts/stream/stats", streamHandler.GetStreamStats)
	}

	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", vehicleHandler.GetVehicles)
		vehicles.POST("", vehicleHandler.CreateVehicle)
		vehicles.GET("/:id", vehicleHandler.GetVehicle)
		vehicles.PATCH("/:id/status", vehicleHandler.UpdateVehicleStatus)
	}

	api.GET("/status", analyticsHandler.GetStatus)

	analytics := api.Group("/analytics")
	{
		analytics.GET("/stats", analyticsHandler.GetFleetStats)
		analytics.GET("/maintenance/:vehicleId", analyticsHandler.GetMaintenancePrediction)
	}
}
