package database

import (
	"context"

	"breadvan-backend/internal/models"
)

const itemColumns = `id, name, price, description, tags, created_at, updated_at`

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	ts := now()
	item.CreatedAt, item.UpdatedAt = ts, ts
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO items (id, name, price, description, tags, created_at, updated_at)
		VALUES (:id, :name, :price, :description, :tags, :created_at, :updated_at)`, item)
	return translateError(err)
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	err := s.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items ORDER BY name`)
	return items, translateError(err)
}

// SearchItems matches query as a case-insensitive substring of name or tags
func (s *Store) SearchItems(ctx context.Context, query string) ([]models.Item, error) {
	items := []models.Item{}
	pattern := "%" + query + "%"
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+itemColumns+` FROM items
		WHERE name ILIKE $1 OR tags ILIKE $1
		ORDER BY name`, pattern)
	return items, translateError(err)
}

// UpdateItem writes every mutable column of item
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = now()
	return expectOneRow(s.db.NamedExecContext(ctx, `
		UPDATE items
		SET name = :name, price = :price, description = :description, tags = :tags, updated_at = :updated_at
		WHERE id = :id`, item))
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return expectOneRow(s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id))
}

// UpsertStock sets the quantity for (driver, item), inserting the row on first use
func (s *Store) UpsertStock(ctx context.Context, stock *models.DriverStock) error {
	stock.UpdatedAt = now()
	err := s.db.GetContext(ctx, &stock.ID, `
		INSERT INTO driver_stock (id, driver_id, item_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (driver_id, item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		stock.ID, stock.DriverID, stock.ItemID, stock.Quantity, stock.UpdatedAt)
	return translateError(err)
}

func (s *Store) ListStock(ctx context.Context, driverID string) ([]models.DriverStock, error) {
	stock := []models.DriverStock{}
	err := s.db.SelectContext(ctx, &stock, `
		SELECT id, driver_id, item_id, quantity, updated_at
		FROM driver_stock WHERE driver_id = $1
		ORDER BY updated_at`, driverID)
	return stock, translateError(err)
}
