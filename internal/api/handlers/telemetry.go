package handlers

import (
	"net/http"
	"strconv"

	"fleet-monitor/internal/models"
	"fleet-monitor/internal/services"
	"fleet-monitor/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TelemetryHandler struct {
	telemetryService *services.TelemetryService
	logger           *zap.Logger
}

func NewTelemetryHandler(telemetryService *services.TelemetryService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		telemetryService: telemetryService,
		logger:           logger,
	}
}

// IngestTelemetry stores one reading and raises alerts for any anomalies in it.
func (h *TelemetryHandler) IngestTelemetry(c *gin.Context) {
	var payload models.TelemetryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	reading, err := h.telemetryService.Ingest(c.Request.Context(), &payload)
	if err != nil {
		respondError(c, h.logger, "Failed to ingest telemetry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Telemetry recorded", reading)
}

// GetTelemetry lists readings newest first, optionally for one vehicle.
func (h *TelemetryHandler) GetTelemetry(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	readings, err := h.telemetryService.List(c.Request.Context(), queryVehicleID(c), limit)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve telemetry", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Telemetry retrieved successfully", readings)
}
