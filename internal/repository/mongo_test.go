package repository

import (
	"context"
	"testing"
	"time"

	"fleet-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func ns(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func counterResponse(seq int64) bson.D {
	return bson.D{
		{Key: "ok", Value: 1},
		{Key: "value", Value: bson.D{{Key: "_id", Value: "x"}, {Key: "seq", Value: seq}}},
	}
}

func TestAlertRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns sequence id", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(counterResponse(7), mtest.CreateSuccessResponse())

		alert, err := repo.Create(ctx, &models.Alert{
			VehicleID: "VEH-1001",
			AlertType: "fuel_low",
			Severity:  models.SeverityHigh,
			Message:   "Fuel level at 12%. Refueling recommended.",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), alert.ID)
		assert.False(t, alert.CreatedAt.IsZero())
	})

	mt.Run("get unknown id", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AlertsCollection), mtest.FirstBatch))

		_, err := repo.Get(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("list decodes alerts", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AlertsCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(2)}, {Key: "vehicle_id", Value: "VEH-1002"}, {Key: "severity", Value: "critical"}},
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "vehicle_id", Value: "VEH-1002"}, {Key: "severity", Value: "high"}},
		))

		alerts, err := repo.List(ctx, models.AlertFilter{VehicleID: "VEH-1002"})
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, int64(2), alerts[0].ID)
		assert.Equal(t, models.SeverityHigh, alerts[1].Severity)
	})

	mt.Run("acknowledge sets actor", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: int64(3)},
				{Key: "acknowledged", Value: true},
				{Key: "acknowledged_by", Value: "dispatcher"},
			}},
		})

		alert, err := repo.Acknowledge(ctx, 3, "dispatcher", time.Now())
		require.NoError(t, err)
		assert.True(t, alert.Acknowledged)
		assert.Equal(t, "dispatcher", alert.AcknowledgedBy)
	})

	mt.Run("acknowledge twice returns stored record", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns(mt, AlertsCollection), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: int64(3)},
				{Key: "acknowledged", Value: true},
				{Key: "acknowledged_by", Value: "first"},
			}),
		)

		alert, err := repo.Acknowledge(ctx, 3, "second", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "first", alert.AcknowledgedBy)
	})

	mt.Run("acknowledge unknown id", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns(mt, AlertsCollection), mtest.FirstBatch),
		)

		_, err := repo.Acknowledge(ctx, 99, "ops", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("delete resolved before cutoff", func(mt *mtest.T) {
		repo := NewAlertRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}))

		deleted, err := repo.DeleteResolvedBefore(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(4), deleted)
	})
}

func TestVehicleRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := repo.Create(ctx, &models.Vehicle{VehicleID: "VEH-1001", VehicleType: "Truck", Status: "active"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	mt.Run("get", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, VehiclesCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "VEH-1004"},
			{Key: "vehicle_type", Value: "SUV"},
			{Key: "status", Value: "active"},
			{Key: "odometer", Value: 98765.0},
		}))

		v, err := repo.Get(ctx, "VEH-1004")
		require.NoError(t, err)
		assert.Equal(t, "VEH-1004", v.VehicleID)
		assert.Equal(t, 98765.0, *v.Odometer)
	})

	mt.Run("update status unknown vehicle", func(mt *mtest.T) {
		repo := NewVehicleRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.UpdateStatus(ctx, "VEH-9999", models.StatusUpdate{Status: "inactive"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTelemetryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert within retention", func(mt *mtest.T) {
		repo := NewTelemetryRepository(mt.DB, 1000)
		mt.AddMockResponses(
			counterResponse(11),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns(mt, TelemetryCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(10)}}),
		)

		r, err := repo.Insert(ctx, reading("VEH-1001", 0))
		require.NoError(t, err)
		assert.Equal(t, int64(11), r.ID)
	})

	mt.Run("insert beyond retention evicts oldest", func(mt *mtest.T) {
		repo := NewTelemetryRepository(mt.DB, 1000)
		mt.AddMockResponses(
			counterResponse(1001),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns(mt, TelemetryCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1001)}}),
			mtest.CreateCursorResponse(0, ns(mt, TelemetryCollection), mtest.FirstBatch, bson.D{{Key: "_id", Value: int64(5)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		r, err := repo.Insert(ctx, reading("VEH-1001", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1001), r.ID)
	})

	mt.Run("latest without readings", func(mt *mtest.T) {
		repo := NewTelemetryRepository(mt.DB, 1000)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, TelemetryCollection), mtest.FirstBatch))

		latest, err := repo.Latest(ctx, "VEH-1003")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	mt.Run("recent decodes newest first", func(mt *mtest.T) {
		repo := NewTelemetryRepository(mt.DB, 1000)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, TelemetryCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(9)}, {Key: "vehicle_id", Value: "VEH-1003"}, {Key: "timestamp", Value: base.Add(time.Minute)}},
			bson.D{{Key: "_id", Value: int64(8)}, {Key: "vehicle_id", Value: "VEH-1003"}, {Key: "timestamp", Value: base}},
		))

		recent, err := repo.Recent(ctx, "VEH-1003", 100)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, int64(9), recent[0].ID)
		assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
	})
}
