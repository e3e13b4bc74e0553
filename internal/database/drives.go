package database

import (
	"context"

	"github.com/lib/pq"

	"breadvan-backend/internal/models"
)

const driveColumns = `id, driver_id, area_id, street_id, date, time, status, menu, eta, scheduled_at, created_at, updated_at`

func statusStrings(statuses []models.DriveStatus) pq.StringArray {
	out := make(pq.StringArray, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// CreateDrive inserts drive. A second non-cancelled drive for the same
// area, street and date fails with ErrDuplicate.
func (s *Store) CreateDrive(ctx context.Context, drive *models.Drive) error {
	ts := now()
	drive.CreatedAt, drive.UpdatedAt = ts, ts
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO drives (id, driver_id, area_id, street_id, date, time, status, menu, eta, scheduled_at, created_at, updated_at)
		VALUES (:id, :driver_id, :area_id, :street_id, :date, :time, :status, :menu, :eta, :scheduled_at, :created_at, :updated_at)`,
		drive)
	return translateError(err)
}

func (s *Store) GetDrive(ctx context.Context, id string) (*models.Drive, error) {
	var drive models.Drive
	if err := s.db.GetContext(ctx, &drive, `SELECT `+driveColumns+` FROM drives WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &drive, nil
}

// FindDriveFor returns the non-cancelled drive booked for (area, street, date)
func (s *Store) FindDriveFor(ctx context.Context, areaID, streetID, date string) (*models.Drive, error) {
	var drive models.Drive
	err := s.db.GetContext(ctx, &drive, `
		SELECT `+driveColumns+` FROM drives
		WHERE area_id = $1 AND street_id = $2 AND date = $3 AND status <> 'Cancelled'
		LIMIT 1`, areaID, streetID, date)
	if err != nil {
		return nil, translateError(err)
	}
	return &drive, nil
}

// FindActiveDrive returns the driver's In Progress drive
func (s *Store) FindActiveDrive(ctx context.Context, driverID string) (*models.Drive, error) {
	var drive models.Drive
	err := s.db.GetContext(ctx, &drive, `
		SELECT `+driveColumns+` FROM drives
		WHERE driver_id = $1 AND status = 'In Progress'
		LIMIT 1`, driverID)
	if err != nil {
		return nil, translateError(err)
	}
	return &drive, nil
}

// ListDrivesByDriver returns the driver's drives in any of statuses, soonest first
func (s *Store) ListDrivesByDriver(ctx context.Context, driverID string, statuses []models.DriveStatus) ([]models.Drive, error) {
	drives := []models.Drive{}
	err := s.db.SelectContext(ctx, &drives, `
		SELECT `+driveColumns+` FROM drives
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY scheduled_at`, driverID, statusStrings(statuses))
	return drives, translateError(err)
}

// ListDrivesByStreet returns drives on streetID, restricted to date when set
func (s *Store) ListDrivesByStreet(ctx context.Context, streetID, date string) ([]models.Drive, error) {
	drives := []models.Drive{}
	var err error
	if date == "" {
		err = s.db.SelectContext(ctx, &drives, `
			SELECT `+driveColumns+` FROM drives WHERE street_id = $1 ORDER BY scheduled_at`, streetID)
	} else {
		err = s.db.SelectContext(ctx, &drives, `
			SELECT `+driveColumns+` FROM drives WHERE street_id = $1 AND date = $2 ORDER BY scheduled_at`,
			streetID, date)
	}
	return drives, translateError(err)
}

func (s *Store) ListDrivesByStatus(ctx context.Context, statuses []models.DriveStatus) ([]models.Drive, error) {
	drives := []models.Drive{}
	err := s.db.SelectContext(ctx, &drives, `
		SELECT `+driveColumns+` FROM drives WHERE status = ANY($1) ORDER BY scheduled_at`,
		statusStrings(statuses))
	return drives, translateError(err)
}

// TransitionDrive moves drive id to status to, but only while it is in one of
// from. ok is false when the drive was not in an accepted state, so two
// concurrent callers cannot both win the same transition.
func (s *Store) TransitionDrive(ctx context.Context, id string, from []models.DriveStatus, to models.DriveStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE drives SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)`,
		to, now(), id, statusStrings(from))
	if err != nil {
		return false, translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateDriveDetails overwrites menu and eta
func (s *Store) UpdateDriveDetails(ctx context.Context, id string, menu, eta *string) error {
	return expectOneRow(s.db.ExecContext(ctx, `
		UPDATE drives SET menu = $1, eta = $2, updated_at = $3 WHERE id = $4`,
		menu, eta, now(), id))
}

func (s *Store) DeleteDrive(ctx context.Context, id string) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM drives WHERE id = $1`, id))
}
