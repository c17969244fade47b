package websocket

import (
	"sync"
	"time"

	"fleet-monitor/internal/models"

	"github.com/gorilla/websocket"
)

// AlertFilters narrows the alert events a client receives. Empty fields match
// everything.
type AlertFilters struct {
	VehicleIDs []string `json:"vehicle_ids,omitempty"`
	Severities []string `json:"severities,omitempty"`
	AlertTypes []string `json:"alert_types,omitempty"`
}

// Alert lifecycle events pushed to clients.
const (
	EventCreated      = "created"
	EventAcknowledged = "acknowledged"
	EventResolved     = "resolved"
)

type AlertEvent struct {
	Event     string        `json:"event"`
	Alert     *models.Alert `json:"alert"`
	Timestamp time.Time     `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan AlertEvent
	LastPing time.Time
	IsActive bool

	mu      sync.RWMutex
	filters AlertFilters
}

func (c *Client) Filters() AlertFilters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters
}

func (c *Client) SetFilters(f AlertFilters) {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
}

// WebSocketManager interface defines the contract for WebSocket management
type WebSocketManager interface {
	RegisterClient(clientID string, conn *websocket.Conn, filters AlertFilters) error
	UnregisterClient(clientID string) error
	BroadcastAlertEvent(event AlertEvent) error
	GetConnectedClients() int
	Start() error
	Stop() error
	GetClientStats() ClientStats
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"total_clients"`
	ActiveClients   int `json:"active_clients"`
	InactiveClients int `json:"inactive_clients"`
}

// Message types for WebSocket communication
const (
	MessageTypeAlertEvent    = "alert_event"
	MessageTypeUpdateFilters = "update_filters"
	MessageTypeError         = "error"
)
