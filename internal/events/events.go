// Package events publishes drive lifecycle events to a message broker so
// other systems (dispatch dashboards, analytics) can follow the vans.
package events

import (
	"context"
	"log"
	"time"
)

// Event types. The type doubles as the broker routing key / topic suffix.
const (
	DriveScheduled = "drive.scheduled"
	DriveStarted   = "drive.started"
	DriveCompleted = "drive.completed"
	DriveCancelled = "drive.cancelled"
	DriveUpdated   = "drive.updated"
	DriveDeleted   = "drive.deleted"
	StopRequested  = "stop.requested"
	StopCancelled  = "stop.cancelled"
	VanNearby      = "van.nearby"
)

type Event struct {
	Type       string            `json:"type"`
	DriveID    string            `json:"drive_id,omitempty"`
	DriverID   string            `json:"driver_id,omitempty"`
	ResidentID string            `json:"resident_id,omitempty"`
	AreaID     string            `json:"area_id,omitempty"`
	StreetID   string            `json:"street_id,omitempty"`
	Status     string            `json:"status,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt int64             `json:"occurred_at"`
}

// New stamps an event of type t with the current time
func New(t string) Event {
	return Event{Type: t, OccurredAt: time.Now().Unix()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher is the default sink when no broker is configured
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	log.Printf("📣 Event %s drive=%s driver=%s resident=%s status=%s",
		e.Type, e.DriveID, e.DriverID, e.ResidentID, e.Status)
	return nil
}

func (LogPublisher) Close() error { return nil }
