package services

import (
	"context"
	"errors"
	"fmt"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/models"
	"fleet-monitor/internal/repository"
)

type MaintenanceService struct {
	vehicles   repository.VehicleStore
	telemetry  repository.TelemetryStore
	thresholds analytics.MaintenanceThresholds
}

func NewMaintenanceService(vehicles repository.VehicleStore, telemetry repository.TelemetryStore, thresholds analytics.MaintenanceThresholds) *MaintenanceService {
	return &MaintenanceService{
		vehicles:   vehicles,
		telemetry:  telemetry,
		thresholds: thresholds,
	}
}

// Predict never reports an unknown vehicle as an error; it returns the default
// prediction instead.
func (s *MaintenanceService) Predict(ctx context.Context, vehicleID string) (models.MaintenancePrediction, error) {
	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if errors.Is(err, repository.ErrNotFound) {
		return analytics.PredictMaintenance(nil, nil, s.thresholds), nil
	}
	if err != nil {
		return models.MaintenancePrediction{}, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}

	recent, err := s.telemetry.Recent(ctx, vehicleID, s.thresholds.Window)
	if err != nil {
		return models.MaintenancePrediction{}, fmt.Errorf("recent telemetry for %s: %w", vehicleID, err)
	}

	return analytics.PredictMaintenance(vehicle, recent, s.thresholds), nil
}
