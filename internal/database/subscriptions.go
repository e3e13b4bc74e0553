package database

import "context"

// Subscribe is idempotent
func (s *Store) Subscribe(ctx context.Context, residentID, driveID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drive_subscriptions (resident_id, drive_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (resident_id, drive_id) DO NOTHING`, residentID, driveID, now())
	return translateError(err)
}

// Unsubscribe is idempotent
func (s *Store) Unsubscribe(ctx context.Context, residentID, driveID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM drive_subscriptions WHERE resident_id = $1 AND drive_id = $2`, residentID, driveID)
	return translateError(err)
}

func (s *Store) SubscribedDrives(ctx context.Context, residentID string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT drive_id FROM drive_subscriptions WHERE resident_id = $1 ORDER BY created_at`, residentID)
	return ids, translateError(err)
}

func (s *Store) Subscribers(ctx context.Context, driveID string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT resident_id FROM drive_subscriptions WHERE drive_id = $1 ORDER BY created_at`, driveID)
	return ids, translateError(err)
}
