package models

import (
	"time"
)

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

type Alert struct {
	ID             int64      `bson:"_id" json:"id"`
	VehicleID      string     `bson:"vehicle_id" json:"vehicle_id"`
	AlertType      string     `bson:"alert_type" json:"alert_type"`
	Severity       string     `bson:"severity" json:"severity"`
	Message        string     `bson:"message" json:"message"`
	TelemetryID    *int64     `bson:"telemetry_id,omitempty" json:"telemetry_id,omitempty"`
	Acknowledged   bool       `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedBy string     `bson:"acknowledged_by,omitempty" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `bson:"acknowledged_at,omitempty" json:"acknowledged_at,omitempty"`
	Resolved       bool       `bson:"resolved" json:"resolved"`
	ResolvedAt     *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}

// AlertFilter narrows an alert listing. Nil fields do not filter.
type AlertFilter struct {
	VehicleID    string
	Acknowledged *bool
	Resolved     *bool
	Severity     string
}

// Matches reports whether a satisfies every set field of f.
func (f AlertFilter) Matches(a *Alert) bool {
	if f.VehicleID != "" && a.VehicleID != f.VehicleID {
		return false
	}
	if f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged {
		return false
	}
	if f.Resolved != nil && a.Resolved != *f.Resolved {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	return true
}
