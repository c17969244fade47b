package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fleet-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got models.TelemetryPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, telemetryPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	payload := &models.TelemetryPayload{VehicleID: "VEH-1001", Timestamp: "2025-01-01T00:00:00Z", Speed: models.Float(42)}

	require.NoError(t, client.Send(context.Background(), payload))
	assert.Equal(t, "VEH-1001", got.VehicleID)
	require.NotNil(t, got.Speed)
	assert.Equal(t, 42.0, *got.Speed)
}

func TestClientSendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Send(context.Background(), &models.TelemetryPayload{VehicleID: "VEH-1001"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, `{"success":false}`, statusErr.Body)
}

type recordingSender struct {
	mu      sync.Mutex
	byID    map[string]int
	failFor string
}

func (s *recordingSender) Send(_ context.Context, p *models.TelemetryPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.VehicleID == s.failFor {
		return errors.New("boom")
	}
	s.byID[p.VehicleID]++
	return nil
}

func TestRunnerSendsForEveryVehicle(t *testing.T) {
	sender := &recordingSender{byID: map[string]int{}, failFor: "VEH-1003"}
	runner := NewRunner(sender, Options{
		Vehicles: 3,
		Interval: 10 * time.Millisecond,
		Duration: 100 * time.Millisecond,
		Seed:     1,
	}, nil)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, sender.byID, "VEH-1001")
	assert.Contains(t, sender.byID, "VEH-1002")
	assert.NotContains(t, sender.byID, "VEH-1003")
	assert.Equal(t, int64(sender.byID["VEH-1001"]+sender.byID["VEH-1002"]), stats.Sent)
	assert.Positive(t, stats.Failed)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	sender := &recordingSender{byID: map[string]int{}}
	runner := NewRunner(sender, Options{Vehicles: 2, Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Stats)
	go func() {
		stats, _ := runner.Run(ctx)
		done <- stats
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case stats := <-done:
		assert.Equal(t, int64(2), stats.Sent)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerRateLimit(t *testing.T) {
	sender := &recordingSender{byID: map[string]int{}}
	runner := NewRunner(sender, Options{
		Vehicles:          1,
		Interval:          time.Millisecond,
		Duration:          200 * time.Millisecond,
		RequestsPerSecond: 10,
	}, nil)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	// burst of one plus roughly two tokens in 200ms
	assert.LessOrEqual(t, stats.Sent, int64(4))
}

func TestRunnerRejectsBadOptions(t *testing.T) {
	_, err := NewRunner(&recordingSender{}, Options{Vehicles: 0, Interval: time.Second}, nil).Run(context.Background())
	assert.Error(t, err)

	_, err = NewRunner(&recordingSender{}, Options{Vehicles: 1}, nil).Run(context.Background())
	assert.Error(t, err)
}
