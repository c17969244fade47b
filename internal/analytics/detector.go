// Package analytics classifies telemetry into anomalies and derives fleet-level
// figures from stored readings and alerts. Everything here is pure and safe for
// concurrent use.
package analytics

import (
	"fmt"
	"strconv"

	"fleet-monitor/internal/models"
)

// Anomaly types emitted by the detector. These strings are persisted as
// Alert.AlertType and must stay stable.
const (
	AnomalyOverheatingCritical = "overheating_critical"
	AnomalyOverheatingHigh     = "overheating_high"
	AnomalyOverheatingWarning  = "overheating_warning"
	AnomalyFuelCritical        = "fuel_critical"
	AnomalyFuelLow             = "fuel_low"
	AnomalySpeedExcessive      = "speed_excessive"
	AnomalySpeedViolation      = "speed_violation"
	AnomalyTirePressureLow     = "tire_pressure_low"
	AnomalyTirePressureHigh    = "tire_pressure_high"
	AnomalyBatteryLow          = "battery_low"
	AnomalyBatteryHigh         = "battery_high"
	AnomalyCombinedRisk        = "combined_risk"
)

type Anomaly struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type Thresholds struct {
	EngineTempCritical float64 // °C
	EngineTempHigh     float64
	EngineTempWarning  float64
	FuelLevelCritical  float64 // %
	FuelLevelLow       float64
	SpeedLimit         float64 // km/h
	SpeedExcessive     float64
	TirePressureLow    float64 // PSI
	TirePressureHigh   float64
	BatteryVoltageLow  float64 // V
	BatteryVoltageHigh float64
}

// DefaultThresholds are the fleet-wide limits used unless a caller supplies its own.
var DefaultThresholds = Thresholds{
	EngineTempCritical: 110,
	EngineTempHigh:     105,
	EngineTempWarning:  100,
	FuelLevelCritical:  10,
	FuelLevelLow:       15,
	SpeedLimit:         100,
	SpeedExcessive:     120,
	TirePressureLow:    28,
	TirePressureHigh:   36,
	BatteryVoltageLow:  12.0,
	BatteryVoltageHigh: 14.8,
}

// check inspects one category of a reading. A check whose input field is absent
// emits nothing.
type check func(r *models.TelemetryReading, t Thresholds) []Anomaly

// checks run in this order and the output keeps it.
var checks = []check{
	checkEngineTemperature,
	checkFuelLevel,
	checkSpeed,
	checkTirePressure,
	checkBatteryVoltage,
	checkCombinedRisk,
}

type Detector struct {
	thresholds Thresholds
}

func NewDetector(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect returns every anomaly the reading triggers, in category order:
// temperature, fuel, speed, tires FL/FR/RL/RR, battery, combined risk.
func (d *Detector) Detect(r *models.TelemetryReading) []Anomaly {
	var anomalies []Anomaly
	for _, c := range checks {
		anomalies = append(anomalies, c(r, d.thresholds)...)
	}
	return anomalies
}

func checkEngineTemperature(r *models.TelemetryReading, t Thresholds) []Anomaly {
	if r.EngineTemperature == nil {
		return nil
	}
	temp := *r.EngineTemperature

	switch {
	case temp >= t.EngineTempCritical:
		return one(AnomalyOverheatingCritical, models.SeverityCritical,
			fmt.Sprintf("CRITICAL: Engine temperature at %s°C. Immediate shutdown recommended.", num(temp)))
	case temp >= t.EngineTempHigh:
		return one(AnomalyOverheatingHigh, models.SeverityHigh,
			fmt.Sprintf("Engine temperature at %s°C. Pull over and let engine cool.", num(temp)))
	case temp >= t.EngineTempWarning:
		return one(AnomalyOverheatingWarning, models.SeverityMedium,
			fmt.Sprintf("Engine temperature elevated at %s°C. Monitor closely.", num(temp)))
	}
	return nil
}

func checkFuelLevel(r *models.TelemetryReading, t Thresholds) []Anomaly {
	if r.FuelLevel == nil {
		return nil
	}
	fuel := *r.FuelLevel

	switch {
	case fuel <= t.FuelLevelCritical:
		return one(AnomalyFuelCritical, models.SeverityCritical,
			fmt.Sprintf("CRITICAL: Fuel level at %s%%. Refuel immediately.", num(fuel)))
	case fuel <= t.FuelLevelLow:
		return one(AnomalyFuelLow, models.SeverityHigh,
			fmt.Sprintf("Fuel level at %s%%. Refueling recommended.", num(fuel)))
	}
	return nil
}

func checkSpeed(r *models.TelemetryReading, t Thresholds) []Anomaly {
	if r.Speed == nil {
		return nil
	}
	speed := *r.Speed

	switch {
	case speed >= t.SpeedExcessive:
		return one(AnomalySpeedExcessive, models.SeverityCritical,
			fmt.Sprintf("CRITICAL: Vehicle speed at %s km/h. Excessive speed detected.", num(speed)))
	case speed >= t.SpeedLimit:
		return one(AnomalySpeedViolation, models.SeverityMedium,
			fmt.Sprintf("Vehicle exceeding speed limit at %s km/h.", num(speed)))
	}
	return nil
}

func checkTirePressure(r *models.TelemetryReading, t Thresholds) []Anomaly {
	tires := []struct {
		name  string
		value *float64
	}{
		{"Front Left", r.TirePressureFL},
		{"Front Right", r.TirePressureFR},
		{"Rear Left", r.TirePressureRL},
		{"Rear Right", r.TirePressureRR},
	}

	var anomalies []Anomaly
	for _, tire := range tires {
		if tire.value == nil {
			continue
		}
		psi := *tire.value

		if psi < t.TirePressureLow {
			anomalies = append(anomalies, Anomaly{
				Type:     AnomalyTirePressureLow,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("%s tire pressure low at %s PSI.", tire.name, num(psi)),
			})
		} else if psi > t.TirePressureHigh {
			anomalies = append(anomalies, Anomaly{
				Type:     AnomalyTirePressureHigh,
				Severity: models.SeverityLow,
				Message:  fmt.Sprintf("%s tire pressure high at %s PSI.", tire.name, num(psi)),
			})
		}
	}
	return anomalies
}

func checkBatteryVoltage(r *models.TelemetryReading, t Thresholds) []Anomaly {
	if r.BatteryVoltage == nil {
		return nil
	}
	volts := *r.BatteryVoltage

	switch {
	case volts < t.BatteryVoltageLow:
		return one(AnomalyBatteryLow, models.SeverityHigh,
			fmt.Sprintf("Battery voltage low at %sV. Check charging system.", num(volts)))
	case volts > t.BatteryVoltageHigh:
		return one(AnomalyBatteryHigh, models.SeverityMedium,
			fmt.Sprintf("Battery voltage high at %sV. Possible overcharging.", num(volts)))
	}
	return nil
}

// checkCombinedRisk uses strict comparisons against the warning temperature and
// the speed limit, and stacks on top of the per-category alerts.
func checkCombinedRisk(r *models.TelemetryReading, t Thresholds) []Anomaly {
	if r.EngineTemperature == nil || r.Speed == nil {
		return nil
	}
	temp, speed := *r.EngineTemperature, *r.Speed

	if temp > t.EngineTempWarning && speed > t.SpeedLimit {
		return one(AnomalyCombinedRisk, models.SeverityHigh,
			fmt.Sprintf("High risk: Elevated temperature (%s°C) combined with high speed (%s km/h).", num(temp), num(speed)))
	}
	return nil
}

func one(anomalyType, severity, message string) []Anomaly {
	return []Anomaly{{Type: anomalyType, Severity: severity, Message: message}}
}

// num renders a reading the way it arrived: 102 stays "102", 11.5 stays "11.5".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
