package handlers

import (
	"errors"
	"io"
	"net/http"

	"fleet-monitor/internal/models"
	"fleet-monitor/internal/services"
	"fleet-monitor/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertHandler struct {
	alertService *services.AlertService
	logger       *zap.Logger
}

func NewAlertHandler(alertService *services.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// GetAlerts lists alerts newest first. Supported filters: vehicle_id
// (or vehicleId), acknowledged, resolved and severity.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		VehicleID: queryVehicleID(c),
		Severity:  c.Query("severity"),
	}

	var err error
	if filter.Acknowledged, err = queryBool(c, "acknowledged"); err != nil {
		respondError(c, h.logger, "Invalid filter", err)
		return
	}
	if filter.Resolved, err = queryBool(c, "resolved"); err != nil {
		respondError(c, h.logger, "Invalid filter", err)
		return
	}

	alerts, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve alerts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alerts retrieved successfully", alerts)
}

// GetAlert retrieves a specific alert by ID
func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, ok := parseAlertID(c)
	if !ok {
		return
	}

	alert, err := h.alertService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert retrieved successfully", alert)
}

// CreateAlert raises a manual alert.
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req services.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	alert, err := h.alertService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Failed to create alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Alert created successfully", alert)
}

// AcknowledgeAlert records who acknowledged the alert. The body is optional;
// without acknowledged_by the acknowledger is "system".
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id, ok := parseAlertID(c)
	if !ok {
		return
	}

	var req services.AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	alert, err := h.alertService.Acknowledge(c.Request.Context(), id, req.AcknowledgedBy)
	if err != nil {
		respondError(c, h.logger, "Failed to acknowledge alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert acknowledged", alert)
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, ok := parseAlertID(c)
	if !ok {
		return
	}

	alert, err := h.alertService.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to resolve alert", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Alert resolved", alert)
}
