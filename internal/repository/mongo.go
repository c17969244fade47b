package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 10 * time.Second

// Collection names used by the MongoDB backend.
const (
	VehiclesCollection  = "vehicles"
	TelemetryCollection = "telemetry"
	AlertsCollection    = "alerts"
	CountersCollection  = "counters"
)

// NewMongoStores returns the durable stores backed by db.
func NewMongoStores(db *mongo.Database, retention int) Stores {
	return Stores{
		Vehicles:  NewVehicleRepository(db),
		Telemetry: NewTelemetryRepository(db, retention),
		Alerts:    NewAlertRepository(db),
	}
}

// sequence hands out increasing integer ids from the counters collection.
type sequence struct {
	counters *mongo.Collection
	name     string
}

func newSequence(db *mongo.Database, name string) *sequence {
	return &sequence{counters: db.Collection(CountersCollection), name: name}
}

func (s *sequence) next(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", s.name, err)
	}

	return counter.Seq, nil
}
