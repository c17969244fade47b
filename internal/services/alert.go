package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fleet-monitor/internal/analytics"
	"fleet-monitor/internal/metrics"
	"fleet-monitor/internal/models"
	"fleet-monitor/internal/repository"
	"fleet-monitor/internal/websocket"

	"go.uber.org/zap"
)

// DefaultAcknowledger is recorded when an acknowledgement names nobody.
const DefaultAcknowledger = "system"

// AlertNotifier receives alert lifecycle events for live subscribers.
type AlertNotifier interface {
	BroadcastAlertEvent(event websocket.AlertEvent) error
}

type AlertService struct {
	store    repository.AlertStore
	notifier AlertNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAlertService(store repository.AlertStore, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		store:  store,
		logger: logger.Named("alerts"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier allows setting the live feed that alert events are pushed to
func (s *AlertService) SetNotifier(notifier AlertNotifier) {
	s.notifier = notifier
}

type CreateAlertRequest struct {
	VehicleID   string `json:"vehicle_id" validate:"required"`
	AlertType   string `json:"alert_type" validate:"required,max=64"`
	Severity    string `json:"severity" validate:"required,oneof=critical high medium low"`
	Message     string `json:"message" validate:"required,min=1,max=500"`
	TelemetryID *int64 `json:"telemetry_id,omitempty"`
}

type AcknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by" validate:"max=100"`
}

func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	alerts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

func (s *AlertService) Get(ctx context.Context, id int64) (*models.Alert, error) {
	return s.store.Get(ctx, id)
}

// Create stores a manually raised alert.
func (s *AlertService) Create(ctx context.Context, req *CreateAlertRequest) (*models.Alert, error) {
	if req == nil {
		return nil, &ValidationError{Message: "alert body is required"}
	}
	if err := validateStruct("invalid alert", req); err != nil {
		return nil, err
	}

	alert, err := s.store.Create(ctx, &models.Alert{
		VehicleID:   req.VehicleID,
		AlertType:   req.AlertType,
		Severity:    req.Severity,
		Message:     req.Message,
		TelemetryID: req.TelemetryID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	metrics.AlertsCreatedTotal.WithLabelValues("manual", alert.Severity).Inc()
	s.notify(websocket.EventCreated, alert)
	return alert, nil
}

// Dispatch persists one alert per anomaly, linked to the reading that raised
// it. No anomalies means no alerts and no error.
func (s *AlertService) Dispatch(ctx context.Context, reading *models.TelemetryReading, anomalies []analytics.Anomaly) ([]*models.Alert, error) {
	if len(anomalies) == 0 {
		return nil, nil
	}

	var telemetryID *int64
	if reading.ID != 0 {
		id := reading.ID
		telemetryID = &id
	}

	created := make([]*models.Alert, 0, len(anomalies))
	for _, a := range anomalies {
		metrics.AnomaliesDetectedTotal.WithLabelValues(a.Type, a.Severity).Inc()

		alert, err := s.store.Create(ctx, &models.Alert{
			VehicleID:   reading.VehicleID,
			AlertType:   a.Type,
			Severity:    a.Severity,
			Message:     a.Message,
			TelemetryID: telemetryID,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return created, fmt.Errorf("dispatch %s alert for %s: %w", a.Type, reading.VehicleID, err)
		}

		metrics.AlertsCreatedTotal.WithLabelValues("detector", alert.Severity).Inc()
		s.notify(websocket.EventCreated, alert)
		created = append(created, alert)
	}

	s.logger.Info("alerts dispatched",
		zap.String("vehicle_id", reading.VehicleID),
		zap.Int64("telemetry_id", reading.ID),
		zap.Int("count", len(created)),
	)
	return created, nil
}

// Acknowledge marks the alert acknowledged by actor, or by "system" when actor
// is blank. An already acknowledged alert keeps its first acknowledger.
func (s *AlertService) Acknowledge(ctx context.Context, id int64, actor string) (*models.Alert, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = DefaultAcknowledger
	}

	before, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	alert, err := s.store.Acknowledge(ctx, id, actor, s.now())
	if err != nil {
		return nil, err
	}

	if !before.Acknowledged {
		metrics.AlertTransitionsTotal.WithLabelValues(websocket.EventAcknowledged).Inc()
		s.notify(websocket.EventAcknowledged, alert)
		s.logger.Info("alert acknowledged", zap.Int64("alert_id", id), zap.String("by", actor))
	}
	return alert, nil
}

// Resolve marks the alert resolved. Resolving twice keeps the first timestamp.
func (s *AlertService) Resolve(ctx context.Context, id int64) (*models.Alert, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	alert, err := s.store.Resolve(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	if !before.Resolved {
		metrics.AlertTransitionsTotal.WithLabelValues(websocket.EventResolved).Inc()
		s.notify(websocket.EventResolved, alert)
		s.logger.Info("alert resolved", zap.Int64("alert_id", id))
	}
	return alert, nil
}

// PurgeResolved deletes alerts resolved more than olderThan ago.
func (s *AlertService) PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	deleted, err := s.store.DeleteResolvedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge resolved alerts: %w", err)
	}
	metrics.AlertsPurgedTotal.Add(float64(deleted))
	return deleted, nil
}

func (s *AlertService) notify(event string, alert *models.Alert) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.BroadcastAlertEvent(websocket.AlertEvent{
		Event:     event,
		Alert:     alert,
		Timestamp: s.now(),
	})
	if err != nil {
		s.logger.Warn("alert event not broadcast", zap.Int64("alert_id", alert.ID), zap.Error(err))
	}
}
