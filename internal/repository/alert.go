package repository

import (
	"context"
	"errors"
	"time"

	"fleet-monitor/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{
		collection: db.Collection(AlertsCollection),
		ids:        newSequence(db, AlertsCollection),
	}
}

func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	stored := *alert
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *AlertRepository) Get(ctx context.Context, id int64) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var alert models.Alert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &alert, nil
}

func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := bson.M{}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	if filter.Acknowledged != nil {
		query["acknowledged"] = *filter.Acknowledged
	}
	if filter.Resolved != nil {
		query["resolved"] = *filter.Resolved
	}
	if filter.Severity != "" {
		query["severity"] = filter.Severity
	}

	// Most recent alerts first
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	alerts := make([]*models.Alert, 0)
	for cursor.Next(ctx) {
		var alert models.Alert
		if err := cursor.Decode(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}

	return alerts, cursor.Err()
}

func (r *AlertRepository) Acknowledge(ctx context.Context, id int64, actor string, at time.Time) (*models.Alert, error) {
	update := bson.M{
		"$set": bson.M{
			"acknowledged":    true,
			"acknowledged_by": actor,
			"acknowledged_at": at,
		},
	}
	return r.transition(ctx, id, "acknowledged", update)
}

func (r *AlertRepository) Resolve(ctx context.Context, id int64, at time.Time) (*models.Alert, error) {
	update := bson.M{
		"$set": bson.M{
			"resolved":    true,
			"resolved_at": at,
		},
	}
	return r.transition(ctx, id, "resolved", update)
}

// transition applies update only while flag is still false. An alert that
// already made the transition is returned as stored.
func (r *AlertRepository) transition(ctx context.Context, id int64, flag string, update bson.M) (*models.Alert, error) {
	tctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result := r.collection.FindOneAndUpdate(
		tctx,
		bson.M{"_id": id, flag: false},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Alert
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.Get(ctx, id)
		}
		return nil, err
	}

	return &updated, nil
}

func (r *AlertRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"resolved": true,
		"resolved_at": bson.M{
			"$lt": cutoff,
		},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
