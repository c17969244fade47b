package repository

import (
	"context"
	"errors"
	"time"

	"fleet-monitor/internal/models"
)

// DemoFleet returns the five demonstration vehicles registered on first start.
func DemoFleet() []*models.Vehicle {
	lastMaint := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	nextMaint := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	return []*models.Vehicle{
		{
			VehicleID:           "VEH-1001",
			VehicleType:         "Truck",
			Make:                "Freightliner",
			Model:               "Cascadia",
			Year:                2022,
			VIN:                 "1FUJGHDV8NLXXXXXX",
			LicensePlate:        "TRK-001",
			Status:              models.VehicleStatusActive,
			LastMaintenanceDate: &lastMaint,
			NextMaintenanceDate: &nextMaint,
			Odometer:            models.Float(125430.5),
		},
		{
			VehicleID:   "VEH-1002",
			VehicleType: "Van",
			Make:        "Ford",
			Model:       "Transit",
			Year:        2023,
			Status:      models.VehicleStatusActive,
			Odometer:    models.Float(87650.25),
		},
		{
			VehicleID:   "VEH-1003",
			VehicleType: "Sedan",
			Make:        "Toyota",
			Model:       "Camry",
			Year:        2023,
			Status:      models.VehicleStatusActive,
			Odometer:    models.Float(45230.75),
		},
		{
			VehicleID:   "VEH-1004",
			VehicleType: "SUV",
			Make:        "Chevrolet",
			Model:       "Tahoe",
			Year:        2022,
			Status:      models.VehicleStatusActive,
			Odometer:    models.Float(98765.0),
		},
		{
			VehicleID:   "VEH-1005",
			VehicleType: "Truck",
			Make:        "Peterbilt",
			Model:       "579",
			Year:        2021,
			Status:      models.VehicleStatusMaintenance,
			Odometer:    models.Float(156890.3),
		},
	}
}

// SeedDemoFleet registers the demo fleet, skipping vehicles that already
// exist. It returns how many were added.
func SeedDemoFleet(ctx context.Context, store VehicleStore) (int, error) {
	added := 0
	for _, v := range DemoFleet() {
		_, err := store.Create(ctx, v)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
