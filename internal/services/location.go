package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/events"
	"breadvan-backend/internal/models"
)

// VanLocationCache keeps the freshest van positions outside the database
type VanLocationCache interface {
	StoreVanLocation(ctx context.Context, areaID string, loc *models.DriverLocation) error
	LatestVanLocation(ctx context.Context) (*models.DriverLocation, error)
}

// LocationBroadcaster pushes live van positions to connected clients
type LocationBroadcaster interface {
	BroadcastToArea(areaID string, data interface{})
}

// VanLocationMessage is the payload broadcast on every accepted fix
type VanLocationMessage struct {
	Type string                 `json:"type"`
	Data *models.DriverLocation `json:"data"`
}

// ProximityResult reports what an accepted location update triggered
type ProximityResult struct {
	Location *models.DriverLocation `json:"location"`
	Alerted  []string               `json:"alerted_residents"`
}

// LocationTracker records driver positions and raises arrival alerts
type LocationTracker struct {
	store       Store
	mailbox     *Mailbox
	publisher   events.Publisher
	cache       VanLocationCache
	broadcaster LocationBroadcaster
}

func NewLocationTracker(store Store, mailbox *Mailbox, publisher events.Publisher) *LocationTracker {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &LocationTracker{store: store, mailbox: mailbox, publisher: publisher}
}

// SetCache enables the van location cache
func (t *LocationTracker) SetCache(c VanLocationCache) {
	t.cache = c
}

// SetBroadcaster enables live van location pushes
func (t *LocationTracker) SetBroadcaster(b LocationBroadcaster) {
	t.broadcaster = b
}

// UpdateLocation stores the driver's new position, then alerts every resident
// of the driver's home area who is strictly within ProximityRadiusKm
func (t *LocationTracker) UpdateLocation(ctx context.Context, driverID string, u models.LocationUpdate) (*ProximityResult, error) {
	if !models.ValidCoordinates(u.Latitude, u.Longitude) {
		return nil, Validation("Invalid coordinates.")
	}

	driver, err := t.store.GetDriver(ctx, driverID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Driver not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}

	loc := &models.DriverLocation{
		DriverID:    driver.ID,
		Latitude:    u.Latitude,
		Longitude:   u.Longitude,
		Heading:     u.Heading,
		Speed:       u.Speed,
		Accuracy:    u.Accuracy,
		Timestamp:   u.Timestamp,
		IsConnected: true,
	}
	if loc.Timestamp == 0 {
		loc.Timestamp = time.Now().Unix()
	}
	if active, err := t.store.FindActiveDrive(ctx, driver.ID); err == nil {
		loc.DriveID = &active.ID
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find active drive: %w", err)
	}

	if err := t.store.UpsertDriverLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}

	if t.cache != nil {
		if err := t.cache.StoreVanLocation(ctx, driver.AreaID, loc); err != nil {
			log.Printf("⚠️  Failed to cache van location for %s: %v", driver.ID, err)
		}
	}
	if t.broadcaster != nil {
		t.broadcaster.BroadcastToArea(driver.AreaID, VanLocationMessage{Type: "van_location_update", Data: loc})
	}

	alerted, err := t.alertNearbyResidents(ctx, driver, loc)
	if err != nil {
		return nil, err
	}
	return &ProximityResult{Location: loc, Alerted: alerted}, nil
}

func (t *LocationTracker) alertNearbyResidents(ctx context.Context, driver *models.Driver, loc *models.DriverLocation) ([]string, error) {
	residents, err := t.store.ResidentsInArea(ctx, driver.AreaID)
	if err != nil {
		return nil, fmt.Errorf("load residents: %w", err)
	}

	alerted := []string{}
	for i := range residents {
		r := &residents[i]
		if !r.HasCoordinates() {
			continue
		}
		if !WithinProximity(loc.Latitude, loc.Longitude, *r.Lat, *r.Lng) {
			continue
		}
		n, err := t.mailbox.Deliver(ctx, r, "The Bread Van is near your area!", models.NotificationArrivalAlert, loc.DriveID)
		if err != nil {
			log.Printf("❌ Failed to send arrival alert to %s: %v", r.ID, err)
			continue
		}
		if n != nil {
			alerted = append(alerted, r.ID)
		}
	}

	if len(alerted) > 0 {
		log.Printf("📍 Driver %s near %d residents", driver.ID, len(alerted))
		e := events.New(events.VanNearby)
		e.DriverID = driver.ID
		e.AreaID = driver.AreaID
		if loc.DriveID != nil {
			e.DriveID = *loc.DriveID
		}
		e.Data = map[string]string{"alerted": fmt.Sprint(len(alerted))}
		if err := t.publisher.Publish(ctx, e); err != nil {
			log.Printf("⚠️  Failed to publish %s: %v", events.VanNearby, err)
		}
	}
	return alerted, nil
}

// LatestVanLocation returns the most recent position reported by any driver
func (t *LocationTracker) LatestVanLocation(ctx context.Context) (*models.DriverLocation, error) {
	if t.cache != nil {
		loc, err := t.cache.LatestVanLocation(ctx)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("⚠️  Van location cache miss: %v", err)
		}
	}
	loc, err := t.store.LatestDriverLocation(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("No van location available.")
	}
	if err != nil {
		return nil, fmt.Errorf("latest location: %w", err)
	}
	return loc, nil
}

// DriverLocation returns one driver's last known position
func (t *LocationTracker) DriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	loc, err := t.store.GetDriverLocation(ctx, driverID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("No location reported for this driver.")
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

// MarkDisconnected keeps the driver's last position but flags it stale
func (t *LocationTracker) MarkDisconnected(ctx context.Context, driverID string) error {
	if err := t.store.MarkDriverDisconnected(ctx, driverID); err != nil {
		return fmt.Errorf("mark disconnected: %w", err)
	}
	log.Printf("🔴 Driver %s marked as disconnected (last position preserved)", driverID)
	return nil
}
