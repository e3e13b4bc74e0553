package database

import (
	"context"

	"breadvan-backend/internal/models"
)

func (s *Store) CreateArea(ctx context.Context, area *models.Area) error {
	if area.CreatedAt == 0 {
		area.CreatedAt = now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO areas (id, name, created_at) VALUES (:id, :name, :created_at)`, area)
	return translateError(err)
}

func (s *Store) GetArea(ctx context.Context, id string) (*models.Area, error) {
	var area models.Area
	err := s.db.GetContext(ctx, &area, `SELECT id, name, created_at FROM areas WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &area, nil
}

func (s *Store) ListAreas(ctx context.Context) ([]models.Area, error) {
	areas := []models.Area{}
	err := s.db.SelectContext(ctx, &areas, `SELECT id, name, created_at FROM areas ORDER BY created_at, name`)
	return areas, translateError(err)
}

func (s *Store) DeleteArea(ctx context.Context, id string) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM areas WHERE id = $1`, id))
}

func (s *Store) CreateStreet(ctx context.Context, street *models.Street) error {
	if street.CreatedAt == 0 {
		street.CreatedAt = now()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO streets (id, name, area_id, created_at) VALUES (:id, :name, :area_id, :created_at)`, street)
	return translateError(err)
}

func (s *Store) GetStreet(ctx context.Context, id string) (*models.Street, error) {
	var street models.Street
	err := s.db.GetContext(ctx, &street,
		`SELECT id, name, area_id, created_at FROM streets WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &street, nil
}

// ListStreets returns every street, or only those of areaID when it is set
func (s *Store) ListStreets(ctx context.Context, areaID string) ([]models.Street, error) {
	streets := []models.Street{}
	var err error
	if areaID == "" {
		err = s.db.SelectContext(ctx, &streets,
			`SELECT id, name, area_id, created_at FROM streets ORDER BY created_at, name`)
	} else {
		err = s.db.SelectContext(ctx, &streets,
			`SELECT id, name, area_id, created_at FROM streets WHERE area_id = $1 ORDER BY created_at, name`, areaID)
	}
	return streets, translateError(err)
}

func (s *Store) DeleteStreet(ctx context.Context, id string) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM streets WHERE id = $1`, id))
}
