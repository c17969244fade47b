package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"fleet-monitor/internal/models"
)

// NewMemoryStores returns volatile stores sharing nothing but the retention cap.
func NewMemoryStores(retention int) Stores {
	return Stores{
		Vehicles:  NewMemoryVehicleStore(),
		Telemetry: NewMemoryTelemetryStore(retention),
		Alerts:    NewMemoryAlertStore(),
	}
}

type MemoryVehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]*models.Vehicle
	order    []string
}

func NewMemoryVehicleStore() *MemoryVehicleStore {
	return &MemoryVehicleStore{vehicles: make(map[string]*models.Vehicle)}
}

func (s *MemoryVehicleStore) List(ctx context.Context) ([]*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]*models.Vehicle, 0, len(s.order))
	for _, id := range s.order {
		v := *s.vehicles[id]
		vehicles = append(vehicles, &v)
	}
	return vehicles, nil
}

func (s *MemoryVehicleStore) Get(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[vehicleID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *v
	return &out, nil
}

func (s *MemoryVehicleStore) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[vehicle.VehicleID]; ok {
		return nil, ErrAlreadyExists
	}

	now := time.Now().UTC()
	stored := *vehicle
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.vehicles[stored.VehicleID] = &stored
	s.order = append(s.order, stored.VehicleID)

	out := stored
	return &out, nil
}

func (s *MemoryVehicleStore) UpdateStatus(ctx context.Context, vehicleID string, update models.StatusUpdate) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[vehicleID]
	if !ok {
		return nil, ErrNotFound
	}

	v.Status = update.Status
	if update.LastMaintenanceDate != nil {
		v.LastMaintenanceDate = update.LastMaintenanceDate
	}
	if update.NextMaintenanceDate != nil {
		v.NextMaintenanceDate = update.NextMaintenanceDate
	}
	if update.Odometer != nil {
		v.Odometer = update.Odometer
	}
	v.UpdatedAt = time.Now().UTC()

	out := *v
	return &out, nil
}

// MemoryTelemetryStore keeps each vehicle's readings ordered by (timestamp, id)
// ascending, so eviction always drops the front of the slice.
type MemoryTelemetryStore struct {
	mu        sync.RWMutex
	retention int
	nextID    int64
	byVehicle map[string][]*models.TelemetryReading
}

func NewMemoryTelemetryStore(retention int) *MemoryTelemetryStore {
	if retention <= 0 {
		retention = DefaultTelemetryRetention
	}
	return &MemoryTelemetryStore{
		retention: retention,
		byVehicle: make(map[string][]*models.TelemetryReading),
	}
}

func (s *MemoryTelemetryStore) Insert(ctx context.Context, reading *models.TelemetryReading) (*models.TelemetryReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *reading
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()

	readings := s.byVehicle[stored.VehicleID]
	i := sort.Search(len(readings), func(i int) bool {
		return after(readings[i], &stored)
	})
	readings = append(readings, nil)
	copy(readings[i+1:], readings[i:])
	readings[i] = &stored

	if excess := len(readings) - s.retention; excess > 0 {
		for j := 0; j < excess; j++ {
			readings[j] = nil
		}
		readings = readings[excess:]
	}
	s.byVehicle[stored.VehicleID] = readings

	out := stored
	return &out, nil
}

func (s *MemoryTelemetryStore) List(ctx context.Context, vehicleID string, limit int) ([]*models.TelemetryReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*models.TelemetryReading
	if vehicleID != "" {
		all = append(all, s.byVehicle[vehicleID]...)
	} else {
		for _, readings := range s.byVehicle {
			all = append(all, readings...)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return after(all[i], all[j])
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return copyReadings(all), nil
}

func (s *MemoryTelemetryStore) Latest(ctx context.Context, vehicleID string) (*models.TelemetryReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.byVehicle[vehicleID]
	if len(readings) == 0 {
		return nil, nil
	}
	out := *readings[len(readings)-1]
	return &out, nil
}

func (s *MemoryTelemetryStore) Recent(ctx context.Context, vehicleID string, n int) ([]*models.TelemetryReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := s.byVehicle[vehicleID]
	if n > 0 && len(readings) > n {
		readings = readings[len(readings)-n:]
	}

	recent := make([]*models.TelemetryReading, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		r := *readings[i]
		recent = append(recent, &r)
	}
	return recent, nil
}

// after orders readings by timestamp, then id.
func after(a, b *models.TelemetryReading) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func copyReadings(in []*models.TelemetryReading) []*models.TelemetryReading {
	out := make([]*models.TelemetryReading, len(in))
	for i, r := range in {
		c := *r
		out[i] = &c
	}
	return out
}

type MemoryAlertStore struct {
	mu     sync.RWMutex
	nextID int64
	alerts map[int64]*models.Alert
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[int64]*models.Alert)}
}

func (s *MemoryAlertStore) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]*models.Alert, 0)
	for _, a := range s.alerts {
		if filter.Matches(a) {
			c := *a
			alerts = append(alerts, &c)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID > alerts[j].ID
	})
	return alerts, nil
}

func (s *MemoryAlertStore) Get(ctx context.Context, id int64) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *MemoryAlertStore) Create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *alert
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.alerts[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemoryAlertStore) Acknowledge(ctx context.Context, id int64, actor string, at time.Time) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}

	if !a.Acknowledged {
		a.Acknowledged = true
		a.AcknowledgedBy = actor
		a.AcknowledgedAt = &at
	}

	out := *a
	return &out, nil
}

func (s *MemoryAlertStore) Resolve(ctx context.Context, id int64, at time.Time) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}

	if !a.Resolved {
		a.Resolved = true
		a.ResolvedAt = &at
	}

	out := *a
	return &out, nil
}

func (s *MemoryAlertStore) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, a := range s.alerts {
		if a.Resolved && a.ResolvedAt != nil && a.ResolvedAt.Before(cutoff) {
			delete(s.alerts, id)
			deleted++
		}
	}
	return deleted, nil
}
