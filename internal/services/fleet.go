package services

import (
	"context"
	"fmt"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/models"
	"fleet-monitor/internal/repository"

	"go.uber.org/zap"
)

// FleetService owns the vehicle registry and the derived fleet views. Every
// view is recomputed from the stores on each call.
type FleetService struct {
	vehicles  repository.VehicleStore
	telemetry repository.TelemetryStore
	alerts    repository.AlertStore
	logger    *zap.Logger
}

func NewFleetService(stores repository.Stores, logger *zap.Logger) *FleetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FleetService{
		vehicles:  stores.Vehicles,
		telemetry: stores.Telemetry,
		alerts:    stores.Alerts,
		logger:    logger.Named("fleet"),
	}
}

func (s *FleetService) ListVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *FleetService) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	return s.vehicles.Get(ctx, vehicleID)
}

func (s *FleetService) RegisterVehicle(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if vehicle == nil {
		return nil, &ValidationError{Message: "vehicle body is required"}
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusActive
	}
	if err := validateStruct("invalid vehicle", vehicle); err != nil {
		return nil, err
	}

	created, err := s.vehicles.Create(ctx, vehicle)
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle registered", zap.String("vehicle_id", created.VehicleID), zap.String("type", created.VehicleType))
	return created, nil
}

func (s *FleetService) UpdateVehicleStatus(ctx context.Context, vehicleID string, update *models.StatusUpdate) (*models.Vehicle, error) {
	if update == nil {
		return nil, &ValidationError{Message: "status body is required"}
	}
	if err := validateStruct("invalid status update", update); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.UpdateStatus(ctx, vehicleID, *update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle status changed", zap.String("vehicle_id", vehicleID), zap.String("status", vehicle.Status))
	return vehicle, nil
}

// VehicleStatuses joins every registered vehicle with its latest reading and
// its unacknowledged alert count.
func (s *FleetService) VehicleStatuses(ctx context.Context) ([]models.VehicleLatestStatus, error) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	unacknowledged := false
	open, err := s.alerts.List(ctx, models.AlertFilter{Acknowledged: &unacknowledged})
	if err != nil {
		return nil, fmt.Errorf("list open alerts: %w", err)
	}

	return s.statuses(ctx, vehicles, analytics.UnacknowledgedByVehicle(open))
}

func (s *FleetService) statuses(ctx context.Context, vehicles []*models.Vehicle, counts map[string]int) ([]models.VehicleLatestStatus, error) {
	statuses := make([]models.VehicleLatestStatus, 0, len(vehicles))
	for _, v := range vehicles {
		latest, err := s.telemetry.Latest(ctx, v.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("latest telemetry for %s: %w", v.VehicleID, err)
		}
		statuses = append(statuses, analytics.BuildVehicleStatus(v, latest, counts[v.VehicleID]))
	}
	return statuses, nil
}

func (s *FleetService) Stats(ctx context.Context) (models.FleetStats, error) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return models.FleetStats{}, fmt.Errorf("list vehicles: %w", err)
	}

	alerts, err := s.alerts.List(ctx, models.AlertFilter{})
	if err != nil {
		return models.FleetStats{}, fmt.Errorf("list alerts: %w", err)
	}

	statuses, err := s.statuses(ctx, vehicles, analytics.UnacknowledgedByVehicle(alerts))
	if err != nil {
		return models.FleetStats{}, err
	}

	return analytics.CalculateFleetStats(vehicles, statuses, alerts), nil
}
