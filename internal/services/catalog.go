package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// CatalogService manages areas, streets, items and driver stock
type CatalogService struct {
	store Store
}

func NewCatalogService(store Store) *CatalogService {
	return &CatalogService{store: store}
}

// notFoundAs maps a storage miss onto a user-facing not-found error
func notFoundAs(err error, msg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return NotFound("%s", msg)
	}
	return err
}

// deleteError maps a delete failure; rows still referenced by drives or
// residents are a conflict
func deleteError(err error, missing, inUse string) error {
	if errors.Is(err, database.ErrInUse) {
		return Conflict("%s", inUse)
	}
	return notFoundAs(err, missing)
}

// ----- areas -----

func (s *CatalogService) CreateArea(ctx context.Context, name string) (*models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("Area name is required.")
	}
	area := &models.Area{ID: uuid.New().String(), Name: name}
	if err := s.store.CreateArea(ctx, area); err != nil {
		return nil, fmt.Errorf("create area: %w", err)
	}
	return area, nil
}

func (s *CatalogService) GetArea(ctx context.Context, id string) (*models.Area, error) {
	area, err := s.store.GetArea(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Invalid area ID.")
	}
	return area, nil
}

func (s *CatalogService) ListAreas(ctx context.Context) ([]models.Area, error) {
	return s.store.ListAreas(ctx)
}

func (s *CatalogService) DeleteArea(ctx context.Context, id string) error {
	return deleteError(s.store.DeleteArea(ctx, id), "Invalid area ID.", "Area is still in use.")
}

// ----- streets -----

func (s *CatalogService) CreateStreet(ctx context.Context, areaID, name string) (*models.Street, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("Street name is required.")
	}
	if _, err := s.GetArea(ctx, areaID); err != nil {
		return nil, err
	}
	street := &models.Street{ID: uuid.New().String(), Name: name, AreaID: areaID}
	if err := s.store.CreateStreet(ctx, street); err != nil {
		return nil, fmt.Errorf("create street: %w", err)
	}
	return street, nil
}

func (s *CatalogService) GetStreet(ctx context.Context, id string) (*models.Street, error) {
	street, err := s.store.GetStreet(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Invalid street ID.")
	}
	return street, nil
}

// ListStreets returns all streets, or those of areaID when set
func (s *CatalogService) ListStreets(ctx context.Context, areaID string) ([]models.Street, error) {
	if areaID != "" {
		if _, err := s.GetArea(ctx, areaID); err != nil {
			return nil, err
		}
	}
	return s.store.ListStreets(ctx, areaID)
}

func (s *CatalogService) DeleteStreet(ctx context.Context, id string) error {
	return deleteError(s.store.DeleteStreet(ctx, id), "Invalid street ID.", "Street is still in use.")
}

// ----- items -----

// ItemInput is the body for creating an item
type ItemInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Tags        string  `json:"tags"`
}

func validateItem(item *models.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return Validation("Item name is required.")
	}
	if item.Price < 0 {
		return Validation("Price must not be negative.")
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	item := &models.Item{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Tags:        in.Tags,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Invalid item ID.")
	}
	return item, nil
}

// ListItems returns every item, or those whose name or tags contain query
func (s *CatalogService) ListItems(ctx context.Context, query string) ([]models.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.store.ListItems(ctx)
	}
	return s.store.SearchItems(ctx, query)
}

// UpdateItem applies the non-nil fields of upd
func (s *CatalogService) UpdateItem(ctx context.Context, id string, upd models.ItemUpdate) (*models.Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		item.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Price != nil {
		item.Price = *upd.Price
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Tags != nil {
		item.Tags = *upd.Tags
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, notFoundAs(err, "Invalid item ID.")
	}
	return item, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	return notFoundAs(s.store.DeleteItem(ctx, id), "Invalid item ID.")
}

// ----- stock -----

// UpdateStock sets the driver's quantity for an item, creating the row on first use
func (s *CatalogService) UpdateStock(ctx context.Context, driverID, itemID string, quantity int) (*models.DriverStock, error) {
	if quantity < 0 {
		return nil, Validation("Quantity must not be negative.")
	}
	if _, err := s.store.GetDriver(ctx, driverID); err != nil {
		return nil, notFoundAs(err, "Driver not found.")
	}
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	stock := &models.DriverStock{
		ID:       uuid.New().String(),
		DriverID: driverID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := s.store.UpsertStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	return stock, nil
}

// DriverStock lists a driver's stock; residents use it to see what a van carries
func (s *CatalogService) DriverStock(ctx context.Context, driverID string) ([]models.DriverStock, error) {
	if _, err := s.store.GetDriver(ctx, driverID); err != nil {
		return nil, notFoundAs(err, "Driver not found.")
	}
	return s.store.ListStock(ctx, driverID)
}
