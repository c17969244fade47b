package models

import (
	"time"
)

const (
	EngineStatusNormal              = "normal"
	EngineStatusOverheating         = "overheating"
	EngineStatusLowFuel             = "low_fuel"
	EngineStatusHighSpeed           = "high_speed"
	EngineStatusMaintenanceRequired = "maintenance_required"
)

// TelemetryReading is one stored sensor snapshot. Sensor fields are nil when the
// vehicle did not report them.
type TelemetryReading struct {
	ID                int64     `bson:"_id" json:"id"`
	VehicleID         string    `bson:"vehicle_id" json:"vehicle_id"`
	Timestamp         time.Time `bson:"timestamp" json:"timestamp"`
	Latitude          *float64  `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64  `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Speed             *float64  `bson:"speed,omitempty" json:"speed,omitempty"`
	EngineTemperature *float64  `bson:"engine_temperature,omitempty" json:"engine_temperature,omitempty"`
	FuelLevel         *float64  `bson:"fuel_level,omitempty" json:"fuel_level,omitempty"`
	Odometer          *float64  `bson:"odometer,omitempty" json:"odometer,omitempty"`
	EngineStatus      string    `bson:"engine_status,omitempty" json:"engine_status,omitempty"`
	TirePressureFL    *float64  `bson:"tire_pressure_fl,omitempty" json:"tire_pressure_fl,omitempty"`
	TirePressureFR    *float64  `bson:"tire_pressure_fr,omitempty" json:"tire_pressure_fr,omitempty"`
	TirePressureRL    *float64  `bson:"tire_pressure_rl,omitempty" json:"tire_pressure_rl,omitempty"`
	TirePressureRR    *float64  `bson:"tire_pressure_rr,omitempty" json:"tire_pressure_rr,omitempty"`
	BatteryVoltage    *float64  `bson:"battery_voltage,omitempty" json:"battery_voltage,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// TelemetryPayload is the ingestion wire format sent by vehicles.
type TelemetryPayload struct {
	VehicleID         string        `json:"vehicle_id" validate:"required"`
	VehicleType       string        `json:"vehicle_type,omitempty"`
	Timestamp         string        `json:"timestamp" validate:"required"`
	Location          *Location     `json:"location,omitempty"`
	Speed             *float64      `json:"speed,omitempty"`
	EngineTemperature *float64      `json:"engine_temperature,omitempty"`
	FuelLevel         *float64      `json:"fuel_level,omitempty"`
	Odometer          *float64      `json:"odometer,omitempty"`
	EngineStatus      string        `json:"engine_status,omitempty" validate:"omitempty,oneof=normal overheating low_fuel high_speed maintenance_required"`
	TirePressure      *TirePressure `json:"tire_pressure,omitempty"`
	BatteryVoltage    *float64      `json:"battery_voltage,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TirePressure struct {
	FrontLeft  *float64 `json:"front_left,omitempty"`
	FrontRight *float64 `json:"front_right,omitempty"`
	RearLeft   *float64 `json:"rear_left,omitempty"`
	RearRight  *float64 `json:"rear_right,omitempty"`
}

// ToReading flattens the payload into an unsaved reading taken at ts.
func (p *TelemetryPayload) ToReading(ts time.Time) *TelemetryReading {
	reading := &TelemetryReading{
		VehicleID:         p.VehicleID,
		Timestamp:         ts,
		Speed:             p.Speed,
		EngineTemperature: p.EngineTemperature,
		FuelLevel:         p.FuelLevel,
		Odometer:          p.Odometer,
		EngineStatus:      p.EngineStatus,
		BatteryVoltage:    p.BatteryVoltage,
	}

	if p.Location != nil {
		reading.Latitude = Float(p.Location.Latitude)
		reading.Longitude = Float(p.Location.Longitude)
	}

	if p.TirePressure != nil {
		reading.TirePressureFL = p.TirePressure.FrontLeft
		reading.TirePressureFR = p.TirePressure.FrontRight
		reading.TirePressureRL = p.TirePressure.RearLeft
		reading.TirePressureRR = p.TirePressure.RearRight
	}

	return reading
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
