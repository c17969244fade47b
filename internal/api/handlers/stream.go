package handlers

import (
	"net/http"

	"fleet-monitor/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StreamHandler upgrades clients onto the live alert feed.
type StreamHandler struct {
	manager *websocket.Manager
	logger  *zap.Logger
}

func NewStreamHandler(manager *websocket.Manager, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		manager: manager,
		logger:  logger,
	}
}

// StreamAlerts upgrades the connection and subscribes it to alert events.
// Filters come from vehicle_ids, severities and alert_types query
// parameters, repeated or comma separated.
func (h *StreamHandler) StreamAlerts(c *gin.Context) {
	filters := websocket.AlertFilters{
		VehicleIDs: queryList(c, "vehicle_ids", "vehicleIds", "vehicle_id"),
		Severities: queryList(c, "severities", "severity"),
		AlertTypes: queryList(c, "alert_types", "alertTypes"),
	}

	conn, err := h.manager.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	if err := h.manager.RegisterClient(clientID, conn, filters); err != nil {
		h.logger.Error("Failed to register stream client", zap.String("client_id", clientID), zap.Error(err))
		conn.Close()
		return
	}

	h.logger.Info("Stream client connected",
		zap.String("client_id", clientID),
		zap.Strings("vehicle_ids", filters.VehicleIDs),
		zap.Strings("severities", filters.Severities),
	)
}

// GetStreamStats reports connected client counts.
func (h *StreamHandler) GetStreamStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.manager.GetConnectedClients(),
		"stats":            h.manager.GetClientStats(),
	})
}
