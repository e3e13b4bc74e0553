// Package memstore is an in-memory implementation of the bread van store. It
// enforces the same uniqueness rules as the Postgres schema and returns the
// database package sentinels, so services behave identically on top of it.
// It backs the service and handler tests and DATABASE_URL=memory:// runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// pair keys the composite-unique tables
type pair struct{ a, b string }

type Store struct {
	mu sync.RWMutex

	users         map[string]*models.User
	drivers       map[string]*models.Driver
	residents     map[string]*models.Resident
	areas         map[string]*models.Area
	streets       map[string]*models.Street
	items         map[string]*models.Item
	stock         map[pair]*models.DriverStock // keyed by (driver, item)
	drives        map[string]*models.Drive
	stops         map[pair]*models.Stop
	subscriptions map[pair]int64 // (drive, resident) -> created_at
	notifications map[string][]*models.Notification
	locations     map[string]*models.DriverLocation
	locationSeq   map[string]int64 // orders fixes reported within the same second
	tokens        map[string]*models.FCMToken

	seq     int64
	tokenID int
}

func New() *Store {
	return &Store{
		users:         map[string]*models.User{},
		drivers:       map[string]*models.Driver{},
		residents:     map[string]*models.Resident{},
		areas:         map[string]*models.Area{},
		streets:       map[string]*models.Street{},
		items:         map[string]*models.Item{},
		stock:         map[pair]*models.DriverStock{},
		drives:        map[string]*models.Drive{},
		stops:         map[pair]*models.Stop{},
		subscriptions: map[pair]int64{},
		notifications: map[string][]*models.Notification{},
		locations:     map[string]*models.DriverLocation{},
		locationSeq:   map[string]int64{},
		tokens:        map[string]*models.FCMToken{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func now() int64 { return time.Now().Unix() }

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ----- areas & streets -----

func (s *Store) CreateArea(ctx context.Context, area *models.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[area.ID]; ok {
		return database.ErrDuplicate
	}
	if area.CreatedAt == 0 {
		area.CreatedAt = s.nextSeq()
	}
	a := *area
	s.areas[a.ID] = &a
	return nil
}

func (s *Store) GetArea(ctx context.Context, id string) (*models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.areas[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *Store) ListAreas(ctx context.Context) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Area, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *Store) DeleteArea(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[id]; !ok {
		return database.ErrNotFound
	}
	for _, d := range s.drivers {
		if d.AreaID == id {
			return database.ErrInUse
		}
	}
	for sid, st := range s.streets {
		if st.AreaID == id && s.streetReferenced(sid) {
			return database.ErrInUse
		}
	}
	if s.areaReferenced(id) {
		return database.ErrInUse
	}
	delete(s.areas, id)
	for sid, st := range s.streets {
		if st.AreaID == id {
			s.dropStreet(sid)
		}
	}
	return nil
}

// areaReferenced and streetReferenced mirror the restricting foreign keys of
// the Postgres schema; driver home streets are cleared instead
func (s *Store) areaReferenced(id string) bool {
	for _, r := range s.residents {
		if r.AreaID == id {
			return true
		}
	}
	for _, d := range s.drives {
		if d.AreaID == id {
			return true
		}
	}
	return false
}

func (s *Store) streetReferenced(id string) bool {
	for _, r := range s.residents {
		if r.StreetID == id {
			return true
		}
	}
	for _, d := range s.drives {
		if d.StreetID == id {
			return true
		}
	}
	return false
}

func (s *Store) dropStreet(id string) {
	delete(s.streets, id)
	for _, d := range s.drivers {
		if d.StreetID != nil && *d.StreetID == id {
			d.StreetID = nil
		}
	}
}

func (s *Store) CreateStreet(ctx context.Context, street *models.Street) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.streets[street.ID]; ok {
		return database.ErrDuplicate
	}
	if street.CreatedAt == 0 {
		street.CreatedAt = s.nextSeq()
	}
	st := *street
	s.streets[st.ID] = &st
	return nil
}

func (s *Store) GetStreet(ctx context.Context, id string) (*models.Street, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.streets[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *st
	return &out, nil
}

func (s *Store) ListStreets(ctx context.Context, areaID string) ([]models.Street, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Street{}
	for _, st := range s.streets {
		if areaID == "" || st.AreaID == areaID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *Store) DeleteStreet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.streets[id]; !ok {
		return database.ErrNotFound
	}
	if s.streetReferenced(id) {
		return database.ErrInUse
	}
	s.dropStreet(id)
	return nil
}

// ----- items & stock -----

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return database.ErrDuplicate
	}
	ts := now()
	item.CreatedAt, item.UpdatedAt = ts, ts
	it := *item
	s.items[it.ID] = &it
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (s *Store) listItems(match func(*models.Item) bool) []models.Item {
	out := []models.Item{}
	for _, it := range s.items {
		if match(it) {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listItems(func(*models.Item) bool { return true }), nil
}

func (s *Store) SearchItems(ctx context.Context, query string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	return s.listItems(func(it *models.Item) bool {
		return strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Tags), q)
	}), nil
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok {
		return database.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = now()
	it := *item
	s.items[it.ID] = &it
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.items, id)
	for k := range s.stock {
		if k.b == id {
			delete(s.stock, k)
		}
	}
	return nil
}

func (s *Store) UpsertStock(ctx context.Context, stock *models.DriverStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{stock.DriverID, stock.ItemID}
	stock.UpdatedAt = now()
	if existing, ok := s.stock[key]; ok {
		stock.ID = existing.ID
	}
	st := *stock
	s.stock[key] = &st
	return nil
}

func (s *Store) ListStock(ctx context.Context, driverID string) ([]models.DriverStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.DriverStock{}
	for k, st := range s.stock {
		if k.a == driverID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}
