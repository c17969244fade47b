// Package simulator generates synthetic telemetry for a fleet and posts it
// to the ingestion endpoint.
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"fleet-monitor/internal/models"
)

// Model constants for the random walk.
const (
	maxSpeed           = 120.0 // km/h
	speedStep          = 10.0
	positionStep       = 0.001 // degrees
	idleEngineTemp     = 70.0
	engineTempSpan     = 50.0 // idle to full-speed target
	tempFollowRate     = 0.1
	spikeProbability   = 0.05
	spikeMin, spikeMax = 5.0, 15.0
	fuelBurnPerTick    = 0.1 // % at full speed
)

var (
	vehicleTypes  = []string{"Truck", "Van", "Sedan", "SUV"}
	baseLocations = [][2]float64{
		{37.7749, -122.4194}, // San Francisco
		{34.0522, -118.2437}, // Los Angeles
		{40.7128, -74.0060},  // New York
		{41.8781, -87.6298},  // Chicago
		{29.7604, -95.3698},  // Houston
	}
)

// Vehicle is one simulated vehicle. It is not safe for concurrent use.
type Vehicle struct {
	ID          string
	Type        string
	Latitude    float64
	Longitude   float64
	Speed       float64
	EngineTemp  float64
	FuelLevel   float64
	Odometer    float64
	EngineState string

	rng *rand.Rand
}

// NewFleet builds n vehicles numbered from VEH-1001, spread over five
// starting cities.
func NewFleet(n int, rng *rand.Rand) []*Vehicle {
	fleet := make([]*Vehicle, 0, n)
	for i := 0; i < n; i++ {
		loc := baseLocations[i%len(baseLocations)]
		fleet = append(fleet, &Vehicle{
			ID:          fmt.Sprintf("VEH-%d", 1001+i),
			Type:        vehicleTypes[rng.Intn(len(vehicleTypes))],
			Latitude:    loc[0],
			Longitude:   loc[1],
			EngineTemp:  idleEngineTemp,
			FuelLevel:   100,
			Odometer:    float64(10000 + rng.Intn(140000)),
			EngineState: models.EngineStatusNormal,
			rng:         rand.New(rand.NewSource(rng.Int63())),
		})
	}
	return fleet
}

// Step advances the vehicle by one tick and returns the reading to send.
// Speed drifts by up to ±10 km/h within [0, 120]; engine temperature moves
// 10% of the way toward a speed-dependent target, with a 5% chance of a
// 5-15°C spike; fuel burns with speed; the odometer advances speed/3600 km.
func (v *Vehicle) Step(now time.Time) *models.TelemetryPayload {
	v.Latitude += v.uniform(-positionStep, positionStep)
	v.Longitude += v.uniform(-positionStep, positionStep)

	v.Speed = math.Max(0, math.Min(maxSpeed, v.Speed+v.uniform(-speedStep, speedStep)))

	target := idleEngineTemp + (v.Speed/maxSpeed)*engineTempSpan
	v.EngineTemp += (target - v.EngineTemp) * tempFollowRate
	if v.rng.Float64() < spikeProbability {
		v.EngineTemp += v.uniform(spikeMin, spikeMax)
	}

	if v.Speed > 0 {
		v.FuelLevel = math.Max(0, v.FuelLevel-(v.Speed/maxSpeed)*fuelBurnPerTick)
	}
	v.Odometer += v.Speed / 3600

	v.EngineState = engineStatus(v.EngineTemp, v.FuelLevel, v.Speed)

	return &models.TelemetryPayload{
		VehicleID:   v.ID,
		VehicleType: v.Type,
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Location: &models.Location{
			Latitude:  round(v.Latitude, 6),
			Longitude: round(v.Longitude, 6),
		},
		Speed:             models.Float(round(v.Speed, 2)),
		EngineTemperature: models.Float(round(v.EngineTemp, 2)),
		FuelLevel:         models.Float(round(v.FuelLevel, 2)),
		Odometer:          models.Float(round(v.Odometer, 2)),
		EngineStatus:      v.EngineState,
		TirePressure: &models.TirePressure{
			FrontLeft:  models.Float(round(v.uniform(30, 35), 1)),
			FrontRight: models.Float(round(v.uniform(30, 35), 1)),
			RearLeft:   models.Float(round(v.uniform(30, 35), 1)),
			RearRight:  models.Float(round(v.uniform(30, 35), 1)),
		},
		BatteryVoltage: models.Float(round(v.uniform(12.0, 14.5), 2)),
	}
}

// engineStatus picks the first matching condition: overheating, low fuel,
// high speed, else normal.
func engineStatus(temp, fuel, speed float64) string {
	switch {
	case temp > 105:
		return models.EngineStatusOverheating
	case fuel < 15:
		return models.EngineStatusLowFuel
	case speed > 100:
		return models.EngineStatusHighSpeed
	default:
		return models.EngineStatusNormal
	}
}

func (v *Vehicle) uniform(lo, hi float64) float64 {
	return lo + v.rng.Float64()*(hi-lo)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
