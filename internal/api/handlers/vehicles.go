package handlers

import (
	"net/http"

	"fleet-monitor/internal/models"
	"fleet-monitor/internal/services"
	"fleet-monitor/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VehicleHandler struct {
	fleetService *services.FleetService
	logger       *zap.Logger
}

func NewVehicleHandler(fleetService *services.FleetService, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{
		fleetService: fleetService,
		logger:       logger,
	}
}

// GetVehicles retrieves all vehicles
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	vehicles, err := h.fleetService.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve vehicles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", vehicles)
}

// GetVehicle retrieves a specific vehicle by ID
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.fleetService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Vehicle not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// CreateVehicle registers a vehicle. Status defaults to active.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	created, err := h.fleetService.RegisterVehicle(c.Request.Context(), &vehicle)
	if err != nil {
		respondError(c, h.logger, "Failed to register vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle registered successfully", created)
}

// UpdateVehicleStatus moves a vehicle between active, maintenance and
// inactive, optionally recording maintenance dates.
func (h *VehicleHandler) UpdateVehicleStatus(c *gin.Context) {
	var update models.StatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	vehicle, err := h.fleetService.UpdateVehicleStatus(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		respondError(c, h.logger, "Failed to update vehicle status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle status updated successfully", vehicle)
}
