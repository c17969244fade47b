package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/metrics"
	"fleet-monitor/internal/models"
	"fleet-monitor/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultTelemetryLimit = 100
	MaxTelemetryLimit     = 1000
)

// AlertDispatcher turns detected anomalies into stored alerts.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, reading *models.TelemetryReading, anomalies []analytics.Anomaly) ([]*models.Alert, error)
}

type TelemetryService struct {
	store      repository.TelemetryStore
	detector   *analytics.Detector
	dispatcher AlertDispatcher
	locks      *keyedMutex
	logger     *zap.Logger
}

func NewTelemetryService(store repository.TelemetryStore, detector *analytics.Detector, dispatcher AlertDispatcher, logger *zap.Logger) *TelemetryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryService{
		store:      store,
		detector:   detector,
		dispatcher: dispatcher,
		locks:      newKeyedMutex(),
		logger:     logger.Named("telemetry"),
	}
}

// Ingest stores a reading and then runs detection and dispatch on it. Both
// steps hold the vehicle's lock so eviction and alert creation for one vehicle
// never interleave.
func (s *TelemetryService) Ingest(ctx context.Context, payload *models.TelemetryPayload) (*models.TelemetryReading, error) {
	start := time.Now()

	if err := checkRequired(payload); err != nil {
		metrics.TelemetryRejectedTotal.WithLabelValues("missing_fields").Inc()
		return nil, err
	}
	if err := validateStruct("invalid telemetry", payload); err != nil {
		metrics.TelemetryRejectedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	ts, err := ParseTimestamp(payload.Timestamp)
	if err != nil {
		metrics.TelemetryRejectedTotal.WithLabelValues("timestamp").Inc()
		return nil, &ValidationError{Message: "invalid timestamp", Err: err}
	}

	unlock := s.locks.Lock(payload.VehicleID)
	defer unlock()

	reading, err := s.store.Insert(ctx, payload.ToReading(ts))
	if err != nil {
		return nil, fmt.Errorf("store telemetry for %s: %w", payload.VehicleID, err)
	}
	metrics.TelemetryIngestedTotal.Inc()

	anomalies := s.detector.Detect(reading)
	if len(anomalies) > 0 {
		s.logger.Debug("anomalies detected",
			zap.String("vehicle_id", reading.VehicleID),
			zap.Int64("telemetry_id", reading.ID),
			zap.Int("count", len(anomalies)),
		)
	}

	if _, err := s.dispatcher.Dispatch(ctx, reading, anomalies); err != nil {
		return reading, fmt.Errorf("dispatch alerts: %w", err)
	}

	metrics.TelemetryIngestDuration.Observe(time.Since(start).Seconds())
	return reading, nil
}

// List returns readings newest first, DefaultTelemetryLimit when limit is not
// positive and at most MaxTelemetryLimit.
func (s *TelemetryService) List(ctx context.Context, vehicleID string, limit int) ([]*models.TelemetryReading, error) {
	if limit <= 0 {
		limit = DefaultTelemetryLimit
	}
	limit = min(limit, MaxTelemetryLimit)

	readings, err := s.store.List(ctx, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list telemetry: %w", err)
	}
	return readings, nil
}

func checkRequired(p *models.TelemetryPayload) error {
	if p == nil {
		return &ValidationError{Message: "Missing required fields: vehicle_id, timestamp"}
	}

	var missing []string
	if strings.TrimSpace(p.VehicleID) == "" {
		missing = append(missing, "vehicle_id")
	}
	if strings.TrimSpace(p.Timestamp) == "" {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO 8601 timestamps. Zone-less
// values are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// keyedMutex serialises work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
