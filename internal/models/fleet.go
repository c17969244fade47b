package models

import (
	"time"
)

// VehicleLatestStatus joins a vehicle with its most recent reading and live
// alert count. It is derived on every query and never stored.
type VehicleLatestStatus struct {
	VehicleID            string     `json:"vehicle_id"`
	VehicleType          string     `json:"vehicle_type"`
	VehicleStatus        string     `json:"vehicle_status"`
	LastUpdate           *time.Time `json:"last_update,omitempty"`
	Latitude             *float64   `json:"latitude,omitempty"`
	Longitude            *float64   `json:"longitude,omitempty"`
	Speed                *float64   `json:"speed,omitempty"`
	EngineTemperature    *float64   `json:"engine_temperature,omitempty"`
	FuelLevel            *float64   `json:"fuel_level,omitempty"`
	Odometer             *float64   `json:"odometer,omitempty"`
	EngineStatus         string     `json:"engine_status,omitempty"`
	BatteryVoltage       *float64   `json:"battery_voltage,omitempty"`
	UnacknowledgedAlerts int        `json:"unacknowledged_alerts"`
}

type FleetStats struct {
	TotalVehicles       int     `json:"total_vehicles"`
	ActiveVehicles      int     `json:"active_vehicles"`
	MaintenanceVehicles int     `json:"maintenance_vehicles"`
	TotalAlerts         int     `json:"total_alerts"`
	CriticalAlerts      int     `json:"critical_alerts"`
	HighAlerts          int     `json:"high_alerts"`
	AverageSpeed        float64 `json:"average_speed"`
	AverageFuel         float64 `json:"average_fuel"`
	AverageTemp         float64 `json:"average_temp"`
	VehiclesWithAlerts  int     `json:"vehicles_with_alerts"`
}

type MaintenancePrediction struct {
	MaintenanceNeeded bool     `json:"maintenanceNeeded"`
	Reasons           []string `json:"reasons"`
	EstimatedDays     int      `json:"estimatedDays"`
}
