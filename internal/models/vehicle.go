package models

import (
	"time"
)

const (
	VehicleStatusActive      = "active"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusInactive    = "inactive"
)

type Vehicle struct {
	VehicleID           string     `bson:"_id" json:"vehicle_id" validate:"required"`
	VehicleType         string     `bson:"vehicle_type" json:"vehicle_type" validate:"required"`
	Make                string     `bson:"make,omitempty" json:"make,omitempty"`
	Model               string     `bson:"model,omitempty" json:"model,omitempty"`
	Year                int        `bson:"year,omitempty" json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	VIN                 string     `bson:"vin,omitempty" json:"vin,omitempty"`
	LicensePlate        string     `bson:"license_plate,omitempty" json:"license_plate,omitempty"`
	Status              string     `bson:"status" json:"status" validate:"required,oneof=active maintenance inactive"`
	LastMaintenanceDate *time.Time `bson:"last_maintenance_date,omitempty" json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time `bson:"next_maintenance_date,omitempty" json:"next_maintenance_date,omitempty"`
	Odometer            *float64   `bson:"odometer,omitempty" json:"odometer,omitempty" validate:"omitempty,min=0"`
	CreatedAt           time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at" json:"updated_at"`
}

// StatusUpdate carries a maintenance-status transition for a vehicle.
type StatusUpdate struct {
	Status              string     `json:"status" validate:"required,oneof=active maintenance inactive"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date,omitempty"`
	Odometer            *float64   `json:"odometer,omitempty" validate:"omitempty,min=0"`
}
