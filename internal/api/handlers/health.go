package handlers

import (
	"context"
	"net/http"
	"time"

	"fleet-monitor/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// ClientCounter reports live stream subscribers.
type ClientCounter interface {
	GetConnectedClients() int
}

type HealthHandler struct {
	backend     string
	db          *mongo.Database
	redisClient *redis.Client
	stream      ClientCounter
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Backend   string                 `json:"backend"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler builds the health probe. db and redisClient are nil when
// the server runs without them; a missing dependency is reported as
// disabled, not unhealthy.
func NewHealthHandler(backend string, db *mongo.Database, redisClient *redis.Client, stream ClientCounter) *HealthHandler {
	return &HealthHandler{
		backend:     backend,
		db:          db,
		redisClient: redisClient,
		stream:      stream,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now().UTC(),
		Backend:   h.backend,
		Services:  make(map[string]interface{}),
	}

	overallHealthy := true

	mongoStatus := h.checkMongoDB(c.Request.Context())
	response.Services["mongodb"] = mongoStatus
	if !mongoStatus["healthy"].(bool) {
		overallHealthy = false
	}

	redisStatus := h.checkRedis()
	response.Services["redis"] = redisStatus
	if !redisStatus["healthy"].(bool) {
		overallHealthy = false
	}

	if h.stream != nil {
		response.Services["stream"] = map[string]interface{}{
			"service":          "stream",
			"healthy":          true,
			"connectedClients": h.stream.GetConnectedClients(),
		}
	}

	if overallHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkMongoDB(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "mongodb",
		"healthy": true,
	}

	if h.db == nil {
		status["message"] = "Disabled"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.db.Client().Ping(ctx, nil); err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
		return status
	}

	status["message"] = "Connected"
	return status
}

func (h *HealthHandler) checkRedis() map[string]interface{} {
	status := map[string]interface{}{
		"service": "redis",
		"healthy": true,
	}

	if h.redisClient == nil {
		status["message"] = "Disabled"
		return status
	}

	healthStatus := h.redisClient.HealthCheck()
	status["healthy"] = healthStatus.IsConnected
	status["connectionInfo"] = healthStatus.ConnectionInfo
	status["responseTime"] = healthStatus.ResponseTime.String()
	status["lastPing"] = healthStatus.LastPing
	status["connectionStats"] = h.redisClient.GetConnectionStats()

	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}

	return status
}
