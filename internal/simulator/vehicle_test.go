package simulator

import (
	"math/rand"
	"testing"
	"time"

	"fleet-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFleet(t *testing.T) {
	fleet := NewFleet(7, rand.New(rand.NewSource(1)))
	require.Len(t, fleet, 7)

	assert.Equal(t, "VEH-1001", fleet[0].ID)
	assert.Equal(t, "VEH-1007", fleet[6].ID)
	// starting cities wrap around
	assert.Equal(t, fleet[0].Latitude, fleet[5].Latitude)
	for _, v := range fleet {
		assert.Contains(t, vehicleTypes, v.Type)
		assert.Equal(t, 100.0, v.FuelLevel)
		assert.Equal(t, idleEngineTemp, v.EngineTemp)
	}
}

func TestVehicleStepStaysInBounds(t *testing.T) {
	v := NewFleet(1, rand.New(rand.NewSource(42)))[0]
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	prevOdo := v.Odometer
	for i := 0; i < 2000; i++ {
		p := v.Step(now.Add(time.Duration(i) * time.Second))

		require.NotNil(t, p.Speed)
		assert.GreaterOrEqual(t, *p.Speed, 0.0)
		assert.LessOrEqual(t, *p.Speed, maxSpeed)
		assert.GreaterOrEqual(t, *p.FuelLevel, 0.0)
		assert.GreaterOrEqual(t, *p.Odometer, prevOdo-0.01)
		assert.GreaterOrEqual(t, *p.BatteryVoltage, 12.0)
		assert.LessOrEqual(t, *p.BatteryVoltage, 14.5)
		assert.GreaterOrEqual(t, *p.TirePressure.FrontLeft, 30.0)
		assert.LessOrEqual(t, *p.TirePressure.RearRight, 35.0)
		assert.Equal(t, engineStatus(v.EngineTemp, v.FuelLevel, v.Speed), p.EngineStatus)
		prevOdo = *p.Odometer
	}
}

func TestVehicleStepPayload(t *testing.T) {
	v := NewFleet(1, rand.New(rand.NewSource(3)))[0]
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p := v.Step(ts)
	assert.Equal(t, "VEH-1001", p.VehicleID)
	assert.Equal(t, v.Type, p.VehicleType)
	assert.Equal(t, "2025-06-01T12:00:00Z", p.Timestamp)
	require.NotNil(t, p.Location)
	assert.InDelta(t, baseLocations[0][0], p.Location.Latitude, 0.0011)
	assert.InDelta(t, baseLocations[0][1], p.Location.Longitude, 0.0011)
}

func TestSeededFleetIsDeterministic(t *testing.T) {
	a := NewFleet(3, rand.New(rand.NewSource(9)))
	b := NewFleet(3, rand.New(rand.NewSource(9)))
	ts := time.Unix(0, 0)
	for i := range a {
		assert.Equal(t, a[i].Step(ts), b[i].Step(ts))
	}
}

func TestEngineStatus(t *testing.T) {
	tests := []struct {
		name              string
		temp, fuel, speed float64
		want              string
	}{
		{"overheating wins", 106, 5, 110, models.EngineStatusOverheating},
		{"low fuel", 90, 14.9, 110, models.EngineStatusLowFuel},
		{"high speed", 90, 50, 100.5, models.EngineStatusHighSpeed},
		{"normal", 105, 15, 100, models.EngineStatusNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engineStatus(tt.temp, tt.fuel, tt.speed))
		})
	}
}
