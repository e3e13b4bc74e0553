package database

import (
	"context"

	"breadvan-backend/internal/models"
)

const locationColumns = `driver_id, latitude, longitude, heading, speed, accuracy, drive_id, timestamp, is_connected, updated_at`

// UpsertDriverLocation keeps exactly one row per driver
func (s *Store) UpsertDriverLocation(ctx context.Context, loc *models.DriverLocation) error {
	loc.UpdatedAt = now()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO driver_current_location
			(driver_id, latitude, longitude, heading, speed, accuracy, drive_id, timestamp, is_connected, updated_at)
		VALUES
			(:driver_id, :latitude, :longitude, :heading, :speed, :accuracy, :drive_id, :timestamp, :is_connected, :updated_at)
		ON CONFLICT (driver_id)
		DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			heading = EXCLUDED.heading,
			speed = EXCLUDED.speed,
			accuracy = EXCLUDED.accuracy,
			drive_id = EXCLUDED.drive_id,
			timestamp = EXCLUDED.timestamp,
			is_connected = EXCLUDED.is_connected,
			updated_at = EXCLUDED.updated_at`, loc)
	return translateError(err)
}

func (s *Store) GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	var loc models.DriverLocation
	err := s.db.GetContext(ctx, &loc,
		`SELECT `+locationColumns+` FROM driver_current_location WHERE driver_id = $1`, driverID)
	if err != nil {
		return nil, translateError(err)
	}
	return &loc, nil
}

// LatestDriverLocation returns the most recently reported position of any driver
func (s *Store) LatestDriverLocation(ctx context.Context) (*models.DriverLocation, error) {
	var loc models.DriverLocation
	err := s.db.GetContext(ctx, &loc,
		`SELECT `+locationColumns+` FROM driver_current_location ORDER BY updated_at DESC LIMIT 1`)
	if err != nil {
		return nil, translateError(err)
	}
	return &loc, nil
}

// MarkDriverDisconnected keeps the last position but flags the driver offline
func (s *Store) MarkDriverDisconnected(ctx context.Context, driverID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE driver_current_location SET is_connected = FALSE, updated_at = $1
		WHERE driver_id = $2`, now(), driverID)
	return translateError(err)
}
