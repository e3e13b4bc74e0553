package subscriber

import (
	"context"
	"encoding/json"
	"testing"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
)

type mockTracker struct {
	updateFn func(ctx context.Context, driverID string, u models.LocationUpdate) (*services.ProximityResult, error)
}

func (m *mockTracker) UpdateLocation(ctx context.Context, driverID string, u models.LocationUpdate) (*services.ProximityResult, error) {
	return m.updateFn(ctx, driverID, u)
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func TestHandleMessage_Success(t *testing.T) {
	var gotDriver string
	var gotUpdate models.LocationUpdate
	sub := &LocationSubscriber{tracker: &mockTracker{
		updateFn: func(_ context.Context, driverID string, u models.LocationUpdate) (*services.ProximityResult, error) {
			gotDriver, gotUpdate = driverID, u
			return &services.ProximityResult{}, nil
		},
	}}

	payload, _ := json.Marshal(models.LocationUpdate{Latitude: 10.6420, Longitude: -61.4000, Timestamp: 1792054800})
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "breadvan/drivers/drv-bob/location", payload: payload})

	if gotDriver != "drv-bob" {
		t.Errorf("expected drv-bob, got %q", gotDriver)
	}
	if gotUpdate.Latitude != 10.6420 || gotUpdate.Longitude != -61.4000 || gotUpdate.Timestamp != 1792054800 {
		t.Errorf("unexpected update %+v", gotUpdate)
	}
}

func TestHandleMessage_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"bad json", "breadvan/drivers/d1/location", `{lat:`},
		{"lat out of range", "breadvan/drivers/d1/location", `{"lat": 91, "lng": 0}`},
		{"lng out of range", "breadvan/drivers/d1/location", `{"lat": 0, "lng": -181}`},
		{"negative timestamp", "breadvan/drivers/d1/location", `{"lat": 0, "lng": 0, "timestamp": -5}`},
		{"missing driver", "breadvan/drivers//location", `{"lat": 0, "lng": 0}`},
		{"wrong topic", "fleet/vehicle/d1/location", `{"lat": 0, "lng": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			sub := &LocationSubscriber{tracker: &mockTracker{
				updateFn: func(context.Context, string, models.LocationUpdate) (*services.ProximityResult, error) {
					called = true
					return nil, nil
				},
			}}
			sub.handleMessage(nil, &fakeMQTTMessage{topic: tt.topic, payload: []byte(tt.payload)})
			if called {
				t.Error("expected tracker not to be called")
			}
		})
	}
}

func TestHandleMessage_TrackerErrorIsLogged(t *testing.T) {
	calls := 0
	sub := &LocationSubscriber{tracker: &mockTracker{
		updateFn: func(context.Context, string, models.LocationUpdate) (*services.ProximityResult, error) {
			calls++
			return nil, services.NotFound("Driver not found.")
		},
	}}
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "breadvan/drivers/ghost/location", payload: []byte(`{"lat": 1, "lng": 1}`)})
	if calls != 1 {
		t.Errorf("expected one tracker call, got %d", calls)
	}
}
