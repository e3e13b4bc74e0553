package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"breadvan-backend/internal/models"
)

const driverSelect = `
	SELECT u.id, u.username, d.status, d.area_id, d.street_id,
		l.latitude AS last_lat, l.longitude AS last_lng, u.created_at
	FROM users u
	JOIN drivers d ON d.user_id = u.id
	LEFT JOIN driver_current_location l ON l.driver_id = u.id`

const residentSelect = `
	SELECT u.id, u.username, r.area_id, r.street_id, r.house_number,
		r.lat, r.lng, r.notification_preferences, u.created_at
	FROM users u
	JOIN residents r ON r.user_id = u.id`

func insertUser(ctx context.Context, ex sqlx.ExtContext, user *models.User) error {
	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts
	_, err := sqlx.NamedExecContext(ctx, ex, `
		INSERT INTO users (id, username, password, role, created_at, updated_at)
		VALUES (:id, :username, :password, :role, :created_at, :updated_at)`, user)
	return translateError(err)
}

// CreateUser inserts a bare account (admins have no profile row)
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return insertUser(ctx, s.db, user)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, username, password, role, created_at, updated_at FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// DeleteUser removes an account; profile rows cascade
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

// CreateDriver inserts the account and driver profile in one transaction
func (s *Store) CreateDriver(ctx context.Context, user *models.User, driver *models.Driver) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		driver.ID, driver.Username, driver.CreatedAt = user.ID, user.Username, user.CreatedAt
		_, err := tx.ExecContext(ctx,
			`INSERT INTO drivers (user_id, status, area_id, street_id) VALUES ($1, $2, $3, $4)`,
			driver.ID, driver.Status, driver.AreaID, driver.StreetID)
		return translateError(err)
	})
}

func (s *Store) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.db.GetContext(ctx, &driver, driverSelect+` WHERE u.id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &driver, nil
}

func (s *Store) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	drivers := []models.Driver{}
	err := s.db.SelectContext(ctx, &drivers, driverSelect+` ORDER BY u.username`)
	return drivers, translateError(err)
}

func (s *Store) UpdateDriverStatus(ctx context.Context, id string, status models.DriverStatus) error {
	return expectOneRow(s.db.ExecContext(ctx,
		`UPDATE drivers SET status = $1 WHERE user_id = $2`, status, id))
}

// CreateResident inserts the account and resident profile in one transaction
func (s *Store) CreateResident(ctx context.Context, user *models.User, resident *models.Resident) error {
	if resident.Preferences == nil {
		resident.Preferences = models.DefaultPreferences()
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		resident.ID, resident.Username, resident.CreatedAt = user.ID, user.Username, user.CreatedAt
		_, err := tx.ExecContext(ctx, `
			INSERT INTO residents (user_id, area_id, street_id, house_number, lat, lng, notification_preferences)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			resident.ID, resident.AreaID, resident.StreetID, resident.HouseNumber,
			resident.Lat, resident.Lng, resident.Preferences)
		return translateError(err)
	})
}

func (s *Store) GetResident(ctx context.Context, id string) (*models.Resident, error) {
	var resident models.Resident
	if err := s.db.GetContext(ctx, &resident, residentSelect+` WHERE u.id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &resident, nil
}

func (s *Store) ListResidents(ctx context.Context) ([]models.Resident, error) {
	residents := []models.Resident{}
	err := s.db.SelectContext(ctx, &residents, residentSelect+` ORDER BY u.username`)
	return residents, translateError(err)
}

// ResidentsOnStreet returns residents whose home is on (areaID, streetID)
func (s *Store) ResidentsOnStreet(ctx context.Context, areaID, streetID string) ([]models.Resident, error) {
	residents := []models.Resident{}
	err := s.db.SelectContext(ctx, &residents,
		residentSelect+` WHERE r.area_id = $1 AND r.street_id = $2 ORDER BY u.created_at`, areaID, streetID)
	return residents, translateError(err)
}

// ResidentsInArea returns residents of areaID that have recorded coordinates
func (s *Store) ResidentsInArea(ctx context.Context, areaID string) ([]models.Resident, error) {
	residents := []models.Resident{}
	err := s.db.SelectContext(ctx, &residents,
		residentSelect+` WHERE r.area_id = $1 AND r.lat IS NOT NULL AND r.lng IS NOT NULL ORDER BY u.created_at`, areaID)
	return residents, translateError(err)
}

func (s *Store) UpdateResidentLocation(ctx context.Context, id string, lat, lng float64) error {
	return expectOneRow(s.db.ExecContext(ctx,
		`UPDATE residents SET lat = $1, lng = $2 WHERE user_id = $3`, lat, lng, id))
}

func (s *Store) UpdatePreferences(ctx context.Context, id string, prefs []string) error {
	return expectOneRow(s.db.ExecContext(ctx,
		`UPDATE residents SET notification_preferences = $1 WHERE user_id = $2`, pq.StringArray(prefs), id))
}
