package services

import (
	"context"
	"math"
	"testing"
	"time"

	"fleet-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleStatuses_NoTelemetryStillListed(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	_, err := f.alerts.Create(ctx, &CreateAlertRequest{
		VehicleID: "VEH-1003",
		AlertType: "driver_report",
		Severity:  models.SeverityMedium,
		Message:   "Check engine light reported by driver",
	})
	require.NoError(t, err)

	statuses, err := f.fleet.VehicleStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 5)

	var camry models.VehicleLatestStatus
	for _, s := range statuses {
		if s.VehicleID == "VEH-1003" {
			camry = s
		}
	}
	assert.Equal(t, "Sedan", camry.VehicleType)
	assert.Nil(t, camry.LastUpdate)
	assert.Nil(t, camry.Speed)
	assert.Nil(t, camry.FuelLevel)
	assert.Equal(t, 1, camry.UnacknowledgedAlerts)
}

func TestVehicleStatuses_UsesNewestTimestamp(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	newer := payload("VEH-1001", ts0.Add(5*time.Minute))
	newer.Speed = models.Float(77)
	older := payload("VEH-1001", ts0)
	older.Speed = models.Float(11)

	_, err := f.telemetry.Ingest(ctx, newer)
	require.NoError(t, err)
	_, err = f.telemetry.Ingest(ctx, older)
	require.NoError(t, err)

	statuses, err := f.fleet.VehicleStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "VEH-1001", statuses[0].VehicleID)
	assert.Equal(t, 77.0, *statuses[0].Speed)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	hot := payload("VEH-1001", ts0)
	hot.EngineTemperature = models.Float(112)
	hot.Speed = models.Float(80)
	hot.FuelLevel = models.Float(40)
	_, err := f.telemetry.Ingest(ctx, hot)
	require.NoError(t, err)

	slow := payload("VEH-1002", ts0)
	slow.EngineTemperature = models.Float(90)
	slow.Speed = models.Float(40)
	slow.FuelLevel = models.Float(14)
	_, err = f.telemetry.Ingest(ctx, slow)
	require.NoError(t, err)

	stats, err := f.fleet.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalVehicles)
	assert.Equal(t, 4, stats.ActiveVehicles)
	assert.Equal(t, 1, stats.MaintenanceVehicles)
	assert.Equal(t, 2, stats.TotalAlerts)
	assert.Equal(t, 1, stats.CriticalAlerts)
	assert.Equal(t, 1, stats.HighAlerts)
	assert.Equal(t, 2, stats.VehiclesWithAlerts)
	assert.InDelta(t, 60.0, stats.AverageSpeed, 1e-9)
	assert.InDelta(t, 27.0, stats.AverageFuel, 1e-9)
	assert.InDelta(t, 101.0, stats.AverageTemp, 1e-9)

	critical, err := f.alerts.List(ctx, models.AlertFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	_, err = f.alerts.Acknowledge(ctx, critical[0].ID, "ops")
	require.NoError(t, err)

	stats, err = f.fleet.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAlerts)
	assert.Zero(t, stats.CriticalAlerts)
	assert.Equal(t, 1, stats.VehiclesWithAlerts)
}

func TestStats_NoTelemetry(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	stats, err := f.fleet.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(stats.AverageSpeed))
	assert.Zero(t, stats.AverageSpeed)
	assert.Zero(t, stats.AverageFuel)
	assert.Zero(t, stats.AverageTemp)
}

func TestRegisterAndUpdateVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.fleet.RegisterVehicle(ctx, &models.Vehicle{VehicleType: "Van"})
	assert.True(t, IsValidation(err))

	v, err := f.fleet.RegisterVehicle(ctx, &models.Vehicle{VehicleID: "VEH-2001", VehicleType: "Van"})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusActive, v.Status)

	_, err = f.fleet.RegisterVehicle(ctx, &models.Vehicle{VehicleID: "VEH-2001", VehicleType: "Van"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.fleet.UpdateVehicleStatus(ctx, "VEH-2001", &models.StatusUpdate{Status: "scrapped"})
	assert.True(t, IsValidation(err))

	updated, err := f.fleet.UpdateVehicleStatus(ctx, "VEH-2001", &models.StatusUpdate{Status: models.VehicleStatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusMaintenance, updated.Status)

	_, err = f.fleet.UpdateVehicleStatus(ctx, "VEH-0000", &models.StatusUpdate{Status: models.VehicleStatusActive})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.fleet.GetVehicle(ctx, "VEH-2001")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusMaintenance, got.Status)
}
