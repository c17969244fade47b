package analytics

import (
	"fleet-monitor/internal/models"
)

// MaintenanceThresholds drive the trend heuristic. The defaults are rules of
// thumb, not validated limits, so they are loaded from configuration.
type MaintenanceThresholds struct {
	Window             int     // readings considered, newest first
	AvgEngineTemp      float64 // °C
	Odometer           float64 // km
	AvgBatteryVoltage  float64 // V
	DefaultDays        int
	EngineTempDays     int
	OdometerDays       int
	BatteryVoltageDays int
}

func DefaultMaintenanceThresholds() MaintenanceThresholds {
	return MaintenanceThresholds{
		Window:             100,
		AvgEngineTemp:      95,
		Odometer:           150000,
		AvgBatteryVoltage:  12.5,
		DefaultDays:        90,
		EngineTempDays:     30,
		OdometerDays:       60,
		BatteryVoltageDays: 14,
	}
}

const (
	ReasonEngineTemp     = "Consistently high engine temperature indicates cooling system issues"
	ReasonOdometer       = "High mileage vehicle requires more frequent maintenance"
	ReasonBatteryVoltage = "Low battery voltage indicates charging system or battery replacement needed"
)

// PredictMaintenance evaluates the recent readings of vehicle v. Without a
// vehicle or without readings nothing is flagged and the default estimate is
// returned. Missing temperature or voltage values count as zero in the averages.
func PredictMaintenance(v *models.Vehicle, recent []*models.TelemetryReading, th MaintenanceThresholds) models.MaintenancePrediction {
	prediction := models.MaintenancePrediction{
		Reasons:       []string{},
		EstimatedDays: th.DefaultDays,
	}

	if v == nil || len(recent) == 0 {
		return prediction
	}

	flag := func(reason string, days int) {
		prediction.MaintenanceNeeded = true
		prediction.Reasons = append(prediction.Reasons, reason)
		prediction.EstimatedDays = min(prediction.EstimatedDays, days)
	}

	var tempSum, voltSum float64
	for _, r := range recent {
		if r.EngineTemperature != nil {
			tempSum += *r.EngineTemperature
		}
		if r.BatteryVoltage != nil {
			voltSum += *r.BatteryVoltage
		}
	}
	n := float64(len(recent))

	if tempSum/n > th.AvgEngineTemp {
		flag(ReasonEngineTemp, th.EngineTempDays)
	}

	if v.Odometer != nil && *v.Odometer > th.Odometer {
		flag(ReasonOdometer, th.OdometerDays)
	}

	if voltSum/n < th.AvgBatteryVoltage {
		flag(ReasonBatteryVoltage, th.BatteryVoltageDays)
	}

	return prediction
}
