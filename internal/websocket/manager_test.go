package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleet-monitor/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager := NewManager(zap.NewNop(), nil)
	require.NoError(t, manager.Start())
	t.Cleanup(func() { manager.Stop() })
	return manager
}

// dial starts a server that registers every connection with filters and
// returns the client side of one connection.
func dial(t *testing.T, manager *Manager, filters AlertFilters) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := manager.GetUpgrader().Upgrade(w, r, nil)
		if err != nil {
			return
		}
		manager.RegisterClient(r.URL.Query().Get("id"), conn, filters)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?id=" + t.Name()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return manager.GetConnectedClients() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestNewManager(t *testing.T) {
	manager := NewManager(nil, []string{"http://localhost:3000"})

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.clients)
	assert.NotNil(t, manager.register)
	assert.NotNil(t, manager.unregister)
	assert.NotNil(t, manager.broadcast)
}

func TestManagerStartStop(t *testing.T) {
	manager := NewManager(zap.NewNop(), nil)

	require.NoError(t, manager.Start())
	assert.NoError(t, manager.Stop())
	assert.NoError(t, manager.Stop())
}

func TestBroadcastDeliversMatchingEvents(t *testing.T) {
	manager := newTestManager(t)
	conn := dial(t, manager, AlertFilters{VehicleIDs: []string{"VEH-1001"}})

	require.NoError(t, manager.BroadcastAlertEvent(AlertEvent{
		Event: EventCreated,
		Alert: &models.Alert{ID: 1, VehicleID: "VEH-1002", Severity: models.SeverityHigh},
	}))
	require.NoError(t, manager.BroadcastAlertEvent(AlertEvent{
		Event: EventCreated,
		Alert: &models.Alert{ID: 2, VehicleID: "VEH-1001", Severity: models.SeverityCritical},
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string     `json:"type"`
		Data AlertEvent `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, MessageTypeAlertEvent, msg.Type)
	assert.Equal(t, EventCreated, msg.Data.Event)
	require.NotNil(t, msg.Data.Alert)
	assert.Equal(t, int64(2), msg.Data.Alert.ID)
	assert.False(t, msg.Data.Timestamp.IsZero())
}

func TestFiltersCanBeUpdated(t *testing.T) {
	manager := newTestManager(t)
	conn := dial(t, manager, AlertFilters{Severities: []string{models.SeverityCritical}})

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    MessageTypeUpdateFilters,
		"filters": AlertFilters{Severities: []string{models.SeverityLow}},
	}))

	require.Eventually(t, func() bool {
		manager.mutex.RLock()
		defer manager.mutex.RUnlock()
		for _, c := range manager.clients {
			f := c.Filters()
			return len(f.Severities) == 1 && f.Severities[0] == models.SeverityLow
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestUnregisterClient(t *testing.T) {
	manager := newTestManager(t)
	dial(t, manager, AlertFilters{})

	require.NoError(t, manager.UnregisterClient(t.Name()))
	require.Eventually(t, func() bool { return manager.GetConnectedClients() == 0 }, time.Second, 10*time.Millisecond)

	assert.NoError(t, manager.UnregisterClient("unknown"))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	manager := newTestManager(t)
	conn := dial(t, manager, AlertFilters{})

	conn.Close()
	require.Eventually(t, func() bool { return manager.GetConnectedClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShouldSendToClient(t *testing.T) {
	alert := &models.Alert{VehicleID: "VEH-1001", Severity: models.SeverityHigh, AlertType: "fuel_low"}

	tests := []struct {
		name     string
		filters  AlertFilters
		expected bool
	}{
		{"no filters", AlertFilters{}, true},
		{"vehicle match", AlertFilters{VehicleIDs: []string{"VEH-1001", "VEH-1002"}}, true},
		{"vehicle mismatch", AlertFilters{VehicleIDs: []string{"VEH-1003"}}, false},
		{"severity match", AlertFilters{Severities: []string{"critical", "high"}}, true},
		{"severity mismatch", AlertFilters{Severities: []string{"critical"}}, false},
		{"type match", AlertFilters{AlertTypes: []string{"fuel_low"}}, true},
		{"combined mismatch", AlertFilters{VehicleIDs: []string{"VEH-1001"}, AlertTypes: []string{"battery_low"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldSendToClient(tt.filters, AlertEvent{Event: EventCreated, Alert: alert})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBroadcastMarksSlowClientInactive(t *testing.T) {
	manager := NewManager(zap.NewNop(), nil)

	slow := &Client{ID: "slow", Send: make(chan AlertEvent), LastPing: time.Now(), IsActive: true}
	manager.clients["slow"] = slow

	manager.broadcastToClients(AlertEvent{Event: EventCreated, Alert: &models.Alert{VehicleID: "VEH-1001"}})

	stats := manager.GetClientStats()
	assert.Equal(t, 1, stats.TotalClients)
	assert.Equal(t, 0, stats.ActiveClients)
	assert.Equal(t, 1, stats.InactiveClients)
}

func TestHealthCheck(t *testing.T) {
	manager := NewManager(zap.NewNop(), nil)

	manager.clients["old-client"] = &Client{
		ID:       "old-client",
		Send:     make(chan AlertEvent, 1),
		LastPing: time.Now().Add(-2 * time.Minute),
		IsActive: true,
	}
	manager.clients["fresh-client"] = &Client{
		ID:       "fresh-client",
		Send:     make(chan AlertEvent, 1),
		LastPing: time.Now(),
		IsActive: true,
	}

	manager.healthCheck()

	assert.Equal(t, 1, len(manager.clients))
	_, exists := manager.clients["fresh-client"]
	assert.True(t, exists)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
