package services

import (
	"context"
	"testing"
	"time"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/models"
	"fleet-monitor/internal/repository"
	"fleet-monitor/internal/websocket"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BroadcastAlertEvent(event websocket.AlertEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

type fixture struct {
	stores      repository.Stores
	alerts      *AlertService
	telemetry   *TelemetryService
	fleet       *FleetService
	maintenance *MaintenanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stores := repository.NewMemoryStores(repository.DefaultTelemetryRetention)
	alerts := NewAlertService(stores.Alerts, nil)

	return &fixture{
		stores:      stores,
		alerts:      alerts,
		telemetry:   NewTelemetryService(stores.Telemetry, analytics.NewDetector(analytics.DefaultThresholds), alerts, nil),
		fleet:       NewFleetService(stores, nil),
		maintenance: NewMaintenanceService(stores.Vehicles, stores.Telemetry, analytics.DefaultMaintenanceThresholds()),
	}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	_, err := repository.SeedDemoFleet(context.Background(), f.stores.Vehicles)
	require.NoError(t, err)
}

var ts0 = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func payload(vehicleID string, at time.Time) *models.TelemetryPayload {
	return &models.TelemetryPayload{
		VehicleID:         vehicleID,
		Timestamp:         at.Format(time.RFC3339),
		Location:          &models.Location{Latitude: 40.7128, Longitude: -74.006},
		Speed:             models.Float(60),
		EngineTemperature: models.Float(88),
		FuelLevel:         models.Float(70),
		Odometer:          models.Float(125500),
		EngineStatus:      models.EngineStatusNormal,
		TirePressure: &models.TirePressure{
			FrontLeft:  models.Float(32),
			FrontRight: models.Float(32),
			RearLeft:   models.Float(33),
			RearRight:  models.Float(33),
		},
		BatteryVoltage: models.Float(13.4),
	}
}

func boolPtr(b bool) *bool { return &b }
