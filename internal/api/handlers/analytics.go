package handlers

import (
	"net/http"

	"fleet-monitor/internal/services"
	"fleet-monitor/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the derived fleet views: per-vehicle status,
// fleet statistics and maintenance predictions.
type AnalyticsHandler struct {
	fleetService       *services.FleetService
	maintenanceService *services.MaintenanceService
	logger             *zap.Logger
}

func NewAnalyticsHandler(fleetService *services.FleetService, maintenanceService *services.MaintenanceService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		fleetService:       fleetService,
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// GetStatus returns the latest known state of every registered vehicle.
func (h *AnalyticsHandler) GetStatus(c *gin.Context) {
	statuses, err := h.fleetService.VehicleStatuses(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve vehicle status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle status retrieved successfully", statuses)
}

func (h *AnalyticsHandler) GetFleetStats(c *gin.Context) {
	stats, err := h.fleetService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to compute fleet statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fleet statistics retrieved successfully", stats)
}

// GetMaintenancePrediction predicts maintenance for one vehicle. Unknown
// vehicles get the default prediction rather than 404.
func (h *AnalyticsHandler) GetMaintenancePrediction(c *gin.Context) {
	prediction, err := h.maintenanceService.Predict(c.Request.Context(), c.Param("vehicleId"))
	if err != nil {
		respondError(c, h.logger, "Failed to predict maintenance", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance prediction retrieved successfully", prediction)
}
