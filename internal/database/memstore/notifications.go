package memstore

import (
	"context"
	"sort"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func (s *Store) AppendNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.CreatedAt == 0 {
		n.CreatedAt = now()
	}
	n.Seq = s.nextSeq()
	stored := *n
	if n.DriveID != nil {
		id := *n.DriveID
		stored.DriveID = &id
	}
	s.notifications[n.ResidentID] = append(s.notifications[n.ResidentID], &stored)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, residentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range s.notifications[residentID] {
		if filter.UnreadOnly && n.Read {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		out = append(out, *n)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Notification{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, residentID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.notifications[residentID]
	if index < 0 || index >= len(inbox) {
		return database.ErrNotFound
	}
	inbox[index].Read = true
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, residentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[residentID] {
		n.Read = true
	}
	return nil
}

func (s *Store) ClearNotifications(ctx context.Context, residentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, residentID)
	return nil
}

func (s *Store) CountNotifications(ctx context.Context, residentID string) (total, unread int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications[residentID] {
		total++
		if !n.Read {
			unread++
		}
	}
	return total, unread, nil
}

// ----- subscriptions -----

func (s *Store) Subscribe(ctx context.Context, residentID, driveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{driveID, residentID}
	if _, ok := s.subscriptions[key]; !ok {
		s.subscriptions[key] = s.nextSeq()
	}
	return nil
}

func (s *Store) Unsubscribe(ctx context.Context, residentID, driveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, pair{driveID, residentID})
	return nil
}

func (s *Store) collectSubscriptions(match func(pair) bool, pick func(pair) string) []string {
	type entry struct {
		id  string
		seq int64
	}
	var entries []entry
	for k, seq := range s.subscriptions {
		if match(k) {
			entries = append(entries, entry{pick(k), seq})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.id)
	}
	return out
}

func (s *Store) SubscribedDrives(ctx context.Context, residentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectSubscriptions(
		func(k pair) bool { return k.b == residentID },
		func(k pair) string { return k.a },
	), nil
}

func (s *Store) Subscribers(ctx context.Context, driveID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectSubscriptions(
		func(k pair) bool { return k.a == driveID },
		func(k pair) string { return k.b },
	), nil
}
