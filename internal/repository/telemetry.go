package repository

import (
	"context"
	"time"

	"fleet-monitor/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TelemetryRepository struct {
	collection *mongo.Collection
	ids        *sequence
	retention  int
}

func NewTelemetryRepository(db *mongo.Database, retention int) *TelemetryRepository {
	if retention <= 0 {
		retention = DefaultTelemetryRetention
	}
	return &TelemetryRepository{
		collection: db.Collection(TelemetryCollection),
		ids:        newSequence(db, TelemetryCollection),
		retention:  retention,
	}
}

// newestFirst is the query-time order of readings.
var newestFirst = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

func (r *TelemetryRepository) Insert(ctx context.Context, reading *models.TelemetryReading) (*models.TelemetryReading, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	stored := *reading
	stored.ID = id
	stored.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, &stored); err != nil {
		return nil, err
	}

	if err := r.evict(ctx, stored.VehicleID); err != nil {
		return nil, err
	}

	return &stored, nil
}

// evict deletes the oldest readings of a vehicle beyond the retention cap.
func (r *TelemetryRepository) evict(ctx context.Context, vehicleID string) error {
	filter := bson.M{"vehicle_id": vehicleID}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}

	excess := count - int64(r.retention)
	if excess <= 0 {
		return nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(excess).
		SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var oldest []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &oldest); err != nil {
		return err
	}

	ids := make([]int64, len(oldest))
	for i, o := range oldest {
		ids[i] = o.ID
	}

	_, err = r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (r *TelemetryRepository) List(ctx context.Context, vehicleID string, limit int) ([]*models.TelemetryReading, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{}
	if vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}

	return r.find(ctx, filter, limit)
}

func (r *TelemetryRepository) Latest(ctx context.Context, vehicleID string) (*models.TelemetryReading, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	readings, err := r.find(ctx, bson.M{"vehicle_id": vehicleID}, 1)
	if err != nil || len(readings) == 0 {
		return nil, err
	}
	return readings[0], nil
}

func (r *TelemetryRepository) Recent(ctx context.Context, vehicleID string, n int) ([]*models.TelemetryReading, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"vehicle_id": vehicleID}, n)
}

func (r *TelemetryRepository) find(ctx context.Context, filter bson.M, limit int) ([]*models.TelemetryReading, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	readings := make([]*models.TelemetryReading, 0)
	if err := cursor.All(ctx, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
