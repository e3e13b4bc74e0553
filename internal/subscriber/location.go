// Package subscriber ingests driver GPS fixes published over MQTT by the van
// trackers and feeds them to the location tracker.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
)

// TopicPattern matches breadvan/drivers/<driver id>/location
const TopicPattern = "breadvan/drivers/+/location"

const handleTimeout = 10 * time.Second

type locationTracker interface {
	UpdateLocation(ctx context.Context, driverID string, u models.LocationUpdate) (*services.ProximityResult, error)
}

type LocationSubscriber struct {
	client  mqtt.Client
	tracker locationTracker
}

// Connect opens an MQTT client session
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

func NewLocationSubscriber(client mqtt.Client, tracker locationTracker) *LocationSubscriber {
	return &LocationSubscriber{client: client, tracker: tracker}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	log.Printf("📡 Subscribed to MQTT topic %s", TopicPattern)
	return nil
}

func (s *LocationSubscriber) Stop() {
	if token := s.client.Unsubscribe(TopicPattern); token.Wait() && token.Error() != nil {
		log.Printf("⚠️  MQTT unsubscribe failed: %v", token.Error())
	}
	s.client.Disconnect(250)
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	driverID, err := driverFromTopic(msg.Topic())
	if err != nil {
		log.Printf("❌ Invalid location topic: %v", err)
		return
	}

	var update models.LocationUpdate
	if err := json.Unmarshal(msg.Payload(), &update); err != nil {
		log.Printf("❌ Invalid location message from %s: %v", driverID, err)
		return
	}
	if err := validateUpdate(&update); err != nil {
		log.Printf("❌ Rejected location from %s: %v", driverID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if _, err := s.tracker.UpdateLocation(ctx, driverID, update); err != nil {
		log.Printf("❌ Failed to update location for %s: %v", driverID, err)
	}
}

func driverFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "breadvan" || parts[1] != "drivers" || parts[3] != "location" || parts[2] == "" {
		return "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[2], nil
}

func validateUpdate(u *models.LocationUpdate) error {
	if u.Latitude < -90 || u.Latitude > 90 {
		return fmt.Errorf("lat: must be between -90 and 90")
	}
	if u.Longitude < -180 || u.Longitude > 180 {
		return fmt.Errorf("lng: must be between -180 and 180")
	}
	if u.Timestamp < 0 {
		return fmt.Errorf("timestamp: must not be negative")
	}
	return nil
}
