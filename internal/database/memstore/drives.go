package memstore

import (
	"context"
	"sort"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func copyDrive(d *models.Drive) models.Drive {
	out := *d
	if d.Menu != nil {
		m := *d.Menu
		out.Menu = &m
	}
	if d.ETA != nil {
		e := *d.ETA
		out.ETA = &e
	}
	return out
}

func hasStatus(d *models.Drive, statuses []models.DriveStatus) bool {
	for _, st := range statuses {
		if d.Status == st {
			return true
		}
	}
	return false
}

// slotTaken mirrors the partial unique index on (area_id, street_id, date)
func (s *Store) slotTaken(d *models.Drive) bool {
	if d.Status == models.DriveStatusCancelled {
		return false
	}
	for _, other := range s.drives {
		if other.ID != d.ID && other.Status != models.DriveStatusCancelled &&
			other.AreaID == d.AreaID && other.StreetID == d.StreetID && other.Date == d.Date {
			return true
		}
	}
	return false
}

// driverBusy mirrors the partial unique index on in-progress drives per driver
func (s *Store) driverBusy(driverID, exceptID string) bool {
	for _, other := range s.drives {
		if other.ID != exceptID && other.DriverID == driverID && other.Status == models.DriveStatusInProgress {
			return true
		}
	}
	return false
}

func (s *Store) CreateDrive(ctx context.Context, drive *models.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drives[drive.ID]; ok || s.slotTaken(drive) {
		return database.ErrDuplicate
	}
	ts := now()
	drive.CreatedAt, drive.UpdatedAt = ts, ts
	d := copyDrive(drive)
	s.drives[d.ID] = &d
	return nil
}

func (s *Store) GetDrive(ctx context.Context, id string) (*models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drives[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := copyDrive(d)
	return &out, nil
}

func (s *Store) findDrive(match func(*models.Drive) bool) (*models.Drive, error) {
	for _, d := range s.drives {
		if match(d) {
			out := copyDrive(d)
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) FindDriveFor(ctx context.Context, areaID, streetID, date string) (*models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findDrive(func(d *models.Drive) bool {
		return d.AreaID == areaID && d.StreetID == streetID && d.Date == date &&
			d.Status != models.DriveStatusCancelled
	})
}

func (s *Store) FindActiveDrive(ctx context.Context, driverID string) (*models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findDrive(func(d *models.Drive) bool {
		return d.DriverID == driverID && d.Status == models.DriveStatusInProgress
	})
}

func (s *Store) listDrives(match func(*models.Drive) bool) []models.Drive {
	out := []models.Drive{}
	for _, d := range s.drives {
		if match(d) {
			out = append(out, copyDrive(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt != out[j].ScheduledAt {
			return out[i].ScheduledAt < out[j].ScheduledAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListDrivesByDriver(ctx context.Context, driverID string, statuses []models.DriveStatus) ([]models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDrives(func(d *models.Drive) bool {
		return d.DriverID == driverID && hasStatus(d, statuses)
	}), nil
}

func (s *Store) ListDrivesByStreet(ctx context.Context, streetID, date string) ([]models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDrives(func(d *models.Drive) bool {
		return d.StreetID == streetID && (date == "" || d.Date == date)
	}), nil
}

func (s *Store) ListDrivesByStatus(ctx context.Context, statuses []models.DriveStatus) ([]models.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDrives(func(d *models.Drive) bool { return hasStatus(d, statuses) }), nil
}

func (s *Store) TransitionDrive(ctx context.Context, id string, from []models.DriveStatus, to models.DriveStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drives[id]
	if !ok || !hasStatus(d, from) {
		return false, nil
	}
	if to == models.DriveStatusInProgress && s.driverBusy(d.DriverID, d.ID) {
		return false, database.ErrDuplicate
	}
	d.Status = to
	d.UpdatedAt = now()
	return true, nil
}

func (s *Store) UpdateDriveDetails(ctx context.Context, id string, menu, eta *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drives[id]
	if !ok {
		return database.ErrNotFound
	}
	updated := copyDrive(&models.Drive{Menu: menu, ETA: eta})
	d.Menu, d.ETA = updated.Menu, updated.ETA
	d.UpdatedAt = now()
	return nil
}

func (s *Store) DeleteDrive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drives[id]; !ok {
		return database.ErrNotFound
	}
	s.deleteDriveLocked(id)
	return nil
}

// deleteDriveLocked removes a drive with its stops and subscriptions and
// detaches it from notifications and locations. Caller holds s.mu.
func (s *Store) deleteDriveLocked(id string) {
	delete(s.drives, id)
	for k := range s.stops {
		if k.a == id {
			delete(s.stops, k)
		}
	}
	for k := range s.subscriptions {
		if k.a == id {
			delete(s.subscriptions, k)
		}
	}
	for _, inbox := range s.notifications {
		for _, n := range inbox {
			if n.DriveID != nil && *n.DriveID == id {
				n.DriveID = nil
			}
		}
	}
	for _, loc := range s.locations {
		if loc.DriveID != nil && *loc.DriveID == id {
			loc.DriveID = nil
		}
	}
}

// ----- stops -----

func (s *Store) CreateStop(ctx context.Context, stop *models.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{stop.DriveID, stop.ResidentID}
	if _, ok := s.stops[key]; ok {
		return database.ErrDuplicate
	}
	stop.CreatedAt = s.nextSeq()
	st := *stop
	s.stops[key] = &st
	return nil
}

func (s *Store) GetStop(ctx context.Context, driveID, residentID string) (*models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stops[pair{driveID, residentID}]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *st
	return &out, nil
}

func (s *Store) DeleteStop(ctx context.Context, driveID, residentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{driveID, residentID}
	if _, ok := s.stops[key]; !ok {
		return database.ErrNotFound
	}
	delete(s.stops, key)
	return nil
}

func (s *Store) listStops(match func(pair) bool) []models.Stop {
	out := []models.Stop{}
	for k, st := range s.stops {
		if match(k) {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func (s *Store) ListStopsByDrive(ctx context.Context, driveID string) ([]models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listStops(func(k pair) bool { return k.a == driveID }), nil
}

func (s *Store) ListStopsByResident(ctx context.Context, residentID string) ([]models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listStops(func(k pair) bool { return k.b == residentID }), nil
}
