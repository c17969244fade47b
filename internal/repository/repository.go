package repository

import (
	"context"
	"errors"
	"time"

	"fleet-monitor/internal/models"
)

// ErrNotFound is returned for lookups and transitions on an unknown id.
var ErrNotFound = errors.New("not found")

// DefaultTelemetryRetention is the number of readings kept per vehicle.
const DefaultTelemetryRetention = 1000

type VehicleStore interface {
	List(ctx context.Context) ([]*models.Vehicle, error)
	Get(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	UpdateStatus(ctx context.Context, vehicleID string, update models.StatusUpdate) (*models.Vehicle, error)
}

// TelemetryStore keeps readings per vehicle. Insert assigns the id and evicts
// the oldest readings by timestamp once a vehicle exceeds the retention cap.
type TelemetryStore interface {
	Insert(ctx context.Context, reading *models.TelemetryReading) (*models.TelemetryReading, error)
	// List returns readings newest first. An empty vehicleID lists every vehicle.
	List(ctx context.Context, vehicleID string, limit int) ([]*models.TelemetryReading, error)
	// Latest returns nil, nil when the vehicle has not reported.
	Latest(ctx context.Context, vehicleID string) (*models.TelemetryReading, error)
	Recent(ctx context.Context, vehicleID string, n int) ([]*models.TelemetryReading, error)
}

type AlertStore interface {
	// List returns alerts matching filter, newest created first.
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	Get(ctx context.Context, id int64) (*models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	// Acknowledge records actor and at on the first acknowledgement only.
	Acknowledge(ctx context.Context, id int64, actor string, at time.Time) (*models.Alert, error)
	// Resolve records at on the first resolution only.
	Resolve(ctx context.Context, id int64, at time.Time) (*models.Alert, error)
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stores groups the three stores of one backend.
type Stores struct {
	Vehicles  VehicleStore
	Telemetry TelemetryStore
	Alerts    AlertStore
}

// ErrAlreadyExists is returned when registering a vehicle id twice.
var ErrAlreadyExists = errors.New("already exists")
