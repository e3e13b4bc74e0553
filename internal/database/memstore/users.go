package memstore

import (
	"context"
	"sort"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) insertUser(user *models.User) error {
	if _, ok := s.users[user.ID]; ok {
		return database.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return database.ErrDuplicate
		}
	}
	ts := s.nextSeq()
	user.CreatedAt, user.UpdatedAt = ts, ts
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(user)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

// DeleteUser cascades to every row the user owns, like the schema's foreign keys
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.users, id)
	delete(s.drivers, id)
	delete(s.residents, id)
	delete(s.notifications, id)
	delete(s.locations, id)
	delete(s.locationSeq, id)
	for driveID, d := range s.drives {
		if d.DriverID == id {
			s.deleteDriveLocked(driveID)
		}
	}
	for k := range s.stops {
		if k.b == id {
			delete(s.stops, k)
		}
	}
	for k := range s.subscriptions {
		if k.b == id {
			delete(s.subscriptions, k)
		}
	}
	for k := range s.stock {
		if k.a == id {
			delete(s.stock, k)
		}
	}
	for token, t := range s.tokens {
		if t.UserID == id {
			delete(s.tokens, token)
		}
	}
	return nil
}

// ----- drivers -----

func (s *Store) driverView(d *models.Driver) models.Driver {
	out := *d
	out.Username = s.users[d.ID].Username
	out.CreatedAt = s.users[d.ID].CreatedAt
	if loc, ok := s.locations[d.ID]; ok {
		lat, lng := loc.Latitude, loc.Longitude
		out.LastLat, out.LastLng = &lat, &lng
	}
	return out
}

func (s *Store) CreateDriver(ctx context.Context, user *models.User, driver *models.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertUser(user); err != nil {
		return err
	}
	driver.ID, driver.Username, driver.CreatedAt = user.ID, user.Username, user.CreatedAt
	d := *driver
	d.LastLat, d.LastLng = nil, nil
	s.drivers[d.ID] = &d
	return nil
}

func (s *Store) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := s.driverView(d)
	return &out, nil
}

func (s *Store) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, s.driverView(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateDriverStatus(ctx context.Context, id string, status models.DriverStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return database.ErrNotFound
	}
	d.Status = status
	return nil
}

// ----- residents -----

func (s *Store) residentView(r *models.Resident) models.Resident {
	out := *r
	out.Username = s.users[r.ID].Username
	out.CreatedAt = s.users[r.ID].CreatedAt
	out.Preferences = append([]string(nil), r.Preferences...)
	if r.Lat != nil {
		lat := *r.Lat
		out.Lat = &lat
	}
	if r.Lng != nil {
		lng := *r.Lng
		out.Lng = &lng
	}
	return out
}

func (s *Store) CreateResident(ctx context.Context, user *models.User, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertUser(user); err != nil {
		return err
	}
	if resident.Preferences == nil {
		resident.Preferences = models.DefaultPreferences()
	}
	resident.ID, resident.Username, resident.CreatedAt = user.ID, user.Username, user.CreatedAt
	r := s.residentView(resident)
	r.Inbox, r.SubscribedDrives = nil, nil
	s.residents[r.ID] = &r
	return nil
}

func (s *Store) GetResident(ctx context.Context, id string) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := s.residentView(r)
	return &out, nil
}

func (s *Store) listResidents(match func(*models.Resident) bool) []models.Resident {
	out := []models.Resident{}
	for _, r := range s.residents {
		if match(r) {
			out = append(out, s.residentView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func (s *Store) ListResidents(ctx context.Context) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listResidents(func(*models.Resident) bool { return true }), nil
}

func (s *Store) ResidentsOnStreet(ctx context.Context, areaID, streetID string) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listResidents(func(r *models.Resident) bool { return r.LivesOn(areaID, streetID) }), nil
}

func (s *Store) ResidentsInArea(ctx context.Context, areaID string) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listResidents(func(r *models.Resident) bool {
		return r.AreaID == areaID && r.HasCoordinates()
	}), nil
}

func (s *Store) UpdateResidentLocation(ctx context.Context, id string, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[id]
	if !ok {
		return database.ErrNotFound
	}
	r.Lat, r.Lng = &lat, &lng
	return nil
}

func (s *Store) UpdatePreferences(ctx context.Context, id string, prefs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[id]
	if !ok {
		return database.ErrNotFound
	}
	r.Preferences = append([]string{}, prefs...)
	return nil
}
