package database

import (
	"context"

	"breadvan-backend/internal/models"
)

const stopColumns = `id, drive_id, resident_id, created_at`

// CreateStop fails with ErrDuplicate when the resident already holds a stop on the drive
func (s *Store) CreateStop(ctx context.Context, stop *models.Stop) error {
	stop.CreatedAt = now()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO stops (id, drive_id, resident_id, created_at)
		VALUES (:id, :drive_id, :resident_id, :created_at)`, stop)
	return translateError(err)
}

func (s *Store) GetStop(ctx context.Context, driveID, residentID string) (*models.Stop, error) {
	var stop models.Stop
	err := s.db.GetContext(ctx, &stop, `
		SELECT `+stopColumns+` FROM stops WHERE drive_id = $1 AND resident_id = $2`, driveID, residentID)
	if err != nil {
		return nil, translateError(err)
	}
	return &stop, nil
}

func (s *Store) DeleteStop(ctx context.Context, driveID, residentID string) error {
	return expectOneRow(s.db.ExecContext(ctx,
		`DELETE FROM stops WHERE drive_id = $1 AND resident_id = $2`, driveID, residentID))
}

func (s *Store) ListStopsByDrive(ctx context.Context, driveID string) ([]models.Stop, error) {
	stops := []models.Stop{}
	err := s.db.SelectContext(ctx, &stops,
		`SELECT `+stopColumns+` FROM stops WHERE drive_id = $1 ORDER BY created_at`, driveID)
	return stops, translateError(err)
}

func (s *Store) ListStopsByResident(ctx context.Context, residentID string) ([]models.Stop, error) {
	stops := []models.Stop{}
	err := s.db.SelectContext(ctx, &stops,
		`SELECT `+stopColumns+` FROM stops WHERE resident_id = $1 ORDER BY created_at`, residentID)
	return stops, translateError(err)
}
