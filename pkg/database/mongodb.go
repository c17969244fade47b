package database

import (
	"context"
	"fmt"
	"time"

	"fleet-monitor/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// DefaultDatabase is used when the URI names no database.
const DefaultDatabase = "fleet_monitor"

// Connect establishes a connection to MongoDB and ensures indexes. Index
// failures are logged; the connection is still returned.
func Connect(ctx context.Context, mongoURI string, logger *zap.Logger) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultDatabase
	}
	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	db := client.Database(dbName)
	if err := CreateIndexes(ctx, db); err != nil {
		logger.Warn("Failed to create indexes", zap.Error(err))
	}

	return db, nil
}

// IndexModels lists the indexes each collection needs, keyed by collection.
func IndexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		repository.VehiclesCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		repository.TelemetryCollection: {
			// Retention ranks a vehicle's readings by (timestamp, _id); latest
			// and recent queries walk the same index backwards.
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
		repository.AlertsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "acknowledged", Value: 1}}},
			{Keys: bson.D{{Key: "resolved", Value: 1}, {Key: "resolved_at", Value: 1}}},
			{Keys: bson.D{{Key: "severity", Value: 1}}},
		},
	}
}

// CreateIndexes creates every index from IndexModels.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range IndexModels() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
