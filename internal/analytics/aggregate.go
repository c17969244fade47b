package analytics

import (
	"fleet-monitor/internal/models"
)

// BuildVehicleStatus joins a vehicle with its latest reading. latest may be nil
// for a vehicle that has not reported yet; the sensor fields then stay nil.
func BuildVehicleStatus(v *models.Vehicle, latest *models.TelemetryReading, unacknowledged int) models.VehicleLatestStatus {
	status := models.VehicleLatestStatus{
		VehicleID:            v.VehicleID,
		VehicleType:          v.VehicleType,
		VehicleStatus:        v.Status,
		UnacknowledgedAlerts: unacknowledged,
	}

	if latest == nil {
		return status
	}

	ts := latest.Timestamp
	status.LastUpdate = &ts
	status.Latitude = latest.Latitude
	status.Longitude = latest.Longitude
	status.Speed = latest.Speed
	status.EngineTemperature = latest.EngineTemperature
	status.FuelLevel = latest.FuelLevel
	status.Odometer = latest.Odometer
	status.EngineStatus = latest.EngineStatus
	status.BatteryVoltage = latest.BatteryVoltage

	return status
}

// UnacknowledgedByVehicle counts open acknowledgements per vehicle id.
func UnacknowledgedByVehicle(alerts []*models.Alert) map[string]int {
	counts := make(map[string]int)
	for _, a := range alerts {
		if !a.Acknowledged {
			counts[a.VehicleID]++
		}
	}
	return counts
}

// CalculateFleetStats aggregates counts and averages across the fleet. Averages
// only include vehicles that reported the field; with no reports they are 0.
func CalculateFleetStats(vehicles []*models.Vehicle, statuses []models.VehicleLatestStatus, alerts []*models.Alert) models.FleetStats {
	stats := models.FleetStats{
		TotalVehicles: len(vehicles),
		TotalAlerts:   len(alerts),
	}

	for _, v := range vehicles {
		switch v.Status {
		case models.VehicleStatusActive:
			stats.ActiveVehicles++
		case models.VehicleStatusMaintenance:
			stats.MaintenanceVehicles++
		}
	}

	withAlerts := make(map[string]struct{})
	for _, a := range alerts {
		if a.Acknowledged {
			continue
		}
		withAlerts[a.VehicleID] = struct{}{}

		switch a.Severity {
		case models.SeverityCritical:
			stats.CriticalAlerts++
		case models.SeverityHigh:
			stats.HighAlerts++
		}
	}
	stats.VehiclesWithAlerts = len(withAlerts)

	var speed, fuel, temp mean
	for _, s := range statuses {
		speed.add(s.Speed)
		fuel.add(s.FuelLevel)
		temp.add(s.EngineTemperature)
	}
	stats.AverageSpeed = speed.value()
	stats.AverageFuel = fuel.value()
	stats.AverageTemp = temp.value()

	return stats
}

type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.count++
}

func (m *mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
