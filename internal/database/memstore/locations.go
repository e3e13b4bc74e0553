package memstore

import (
	"context"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func (s *Store) UpsertDriverLocation(ctx context.Context, loc *models.DriverLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc.UpdatedAt = now()
	stored := *loc
	s.locations[loc.DriverID] = &stored
	s.locationSeq[loc.DriverID] = s.nextSeq()
	return nil
}

func (s *Store) GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[driverID]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *loc
	return &out, nil
}

func (s *Store) LatestDriverLocation(ctx context.Context) (*models.DriverLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.DriverLocation
	for id, loc := range s.locations {
		if latest == nil || s.locationSeq[id] > s.locationSeq[latest.DriverID] {
			latest = loc
		}
	}
	if latest == nil {
		return nil, database.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (s *Store) MarkDriverDisconnected(ctx context.Context, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok := s.locations[driverID]; ok {
		loc.IsConnected = false
	}
	return nil
}

// ----- fcm tokens -----

func (s *Store) UpsertFCMToken(ctx context.Context, userID, token, deviceType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	if t, ok := s.tokens[token]; ok {
		t.UserID, t.DeviceType, t.UpdatedAt = userID, deviceType, ts
		return nil
	}
	s.tokenID++
	s.tokens[token] = &models.FCMToken{
		ID:         s.tokenID,
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	return nil
}

func (s *Store) FCMTokens(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for token, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, token)
		}
	}
	return out, nil
}

func (s *Store) DeleteFCMToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
