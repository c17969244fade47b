package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"fleet-monitor/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	staleAfter   = 90 * time.Second
	sendBuffer   = 256
	broadcastCap = 1000
)

// Manager implements the WebSocketManager interface
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan AlertEvent
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// NewManager creates a hub accepting connections from allowedOrigins. A "*"
// entry or an empty list accepts any origin.
func NewManager(logger *zap.Logger, allowedOrigins []string) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan AlertEvent, broadcastCap),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done:   make(chan struct{}),
		logger: logger.Named("websocket"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Start begins the WebSocket manager's main loop
func (m *Manager) Start() error {
	go m.run()
	m.logger.Info("alert stream hub started")
	return nil
}

// Stop closes every client connection. It is safe to call more than once.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.done)

		m.mutex.Lock()
		for id, client := range m.clients {
			delete(m.clients, id)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
		metrics.StreamClientsConnected.Set(0)
		m.mutex.Unlock()

		m.logger.Info("alert stream hub stopped")
	})
	return nil
}

func (m *Manager) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			metrics.StreamClientsConnected.Set(float64(len(m.clients)))
			m.mutex.Unlock()
			m.logger.Debug("client registered", zap.String("client_id", client.ID))
			go m.handleClient(client)

		case client := <-m.unregister:
			m.remove(client.ID)

		case event := <-m.broadcast:
			m.broadcastToClients(event)

		case <-ticker.C:
			m.healthCheck()

		case <-m.done:
			return
		}
	}
}

func (m *Manager) remove(clientID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return
	}
	delete(m.clients, clientID)
	close(client.Send)
	if client.Conn != nil {
		client.Conn.Close()
	}
	metrics.StreamClientsConnected.Set(float64(len(m.clients)))
	m.logger.Debug("client unregistered", zap.String("client_id", clientID))
}

// RegisterClient registers a new WebSocket client
func (m *Manager) RegisterClient(clientID string, conn *websocket.Conn, filters AlertFilters) error {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Send:     make(chan AlertEvent, sendBuffer),
		LastPing: time.Now(),
		IsActive: true,
		filters:  filters,
	}

	select {
	case m.register <- client:
		return nil
	case <-m.done:
		return fmt.Errorf("hub stopped, cannot register client %s", clientID)
	}
}

// UnregisterClient removes a WebSocket client
func (m *Manager) UnregisterClient(clientID string) error {
	m.mutex.RLock()
	client, exists := m.clients[clientID]
	m.mutex.RUnlock()

	if !exists {
		return nil
	}

	select {
	case m.unregister <- client:
	case <-m.done:
	}
	return nil
}

// BroadcastAlertEvent queues an event for every client whose filters match.
// It never blocks; a full queue drops the event.
func (m *Manager) BroadcastAlertEvent(event AlertEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case m.broadcast <- event:
		return nil
	default:
		metrics.StreamMessagesDropped.Inc()
		return fmt.Errorf("broadcast channel full, dropping %s event", event.Event)
	}
}

// GetConnectedClients returns the number of connected clients
func (m *Manager) GetConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// GetClientStats returns detailed client statistics
func (m *Manager) GetClientStats() ClientStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := ClientStats{
		TotalClients: len(m.clients),
	}

	for _, client := range m.clients {
		if client.IsActive {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}

	return stats
}

// GetUpgrader returns the WebSocket upgrader for external use
func (m *Manager) GetUpgrader() *websocket.Upgrader {
	return &m.upgrader
}

func (m *Manager) broadcastToClients(event AlertEvent) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, client := range m.clients {
		if !shouldSendToClient(client.Filters(), event) {
			continue
		}
		select {
		case client.Send <- event:
		default:
			client.IsActive = false
			metrics.StreamMessagesDropped.Inc()
			m.logger.Warn("client send buffer full, marking inactive", zap.String("client_id", client.ID))
		}
	}
}

func shouldSendToClient(filters AlertFilters, event AlertEvent) bool {
	if event.Alert == nil {
		return true
	}
	if len(filters.VehicleIDs) > 0 && !slices.Contains(filters.VehicleIDs, event.Alert.VehicleID) {
		return false
	}
	if len(filters.Severities) > 0 && !slices.Contains(filters.Severities, event.Alert.Severity) {
		return false
	}
	if len(filters.AlertTypes) > 0 && !slices.Contains(filters.AlertTypes, event.Alert.AlertType) {
		return false
	}
	return true
}

// handleClient reads control messages until the connection drops.
func (m *Manager) handleClient(client *Client) {
	defer func() {
		select {
		case m.unregister <- client:
		case <-m.done:
		}
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		m.mutex.Lock()
		client.LastPing = time.Now()
		m.mutex.Unlock()
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go m.writeMessages(client)

	for {
		var message struct {
			Type    string          `json:"type"`
			Filters json.RawMessage `json:"filters"`
		}
		err := client.Conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("websocket read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}

		if message.Type == MessageTypeUpdateFilters && len(message.Filters) > 0 {
			var filters AlertFilters
			if err := json.Unmarshal(message.Filters, &filters); err == nil {
				client.SetFilters(filters)
				m.logger.Debug("client filters updated", zap.String("client_id", client.ID))
			}
		}
	}
}

func (m *Manager) writeMessages(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(map[string]interface{}{
				"type": MessageTypeAlertEvent,
				"data": event,
			}); err != nil {
				m.logger.Debug("write failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.logger.Debug("ping failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}
		}
	}
}

// healthCheck drops clients that stopped answering pings.
func (m *Manager) healthCheck() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for clientID, client := range m.clients {
		if now.Sub(client.LastPing) > staleAfter {
			m.logger.Info("client timed out", zap.String("client_id", clientID))
			delete(m.clients, clientID)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
	metrics.StreamClientsConnected.Set(float64(len(m.clients)))
}
