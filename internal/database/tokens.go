package database

import "context"

// UpsertFCMToken registers token for userID, moving it if another user held it
func (s *Store) UpsertFCMToken(ctx context.Context, userID, token, deviceType string) error {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token)
		DO UPDATE SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, updated_at = EXCLUDED.updated_at`,
		userID, token, deviceType, ts)
	return translateError(err)
}

func (s *Store) FCMTokens(ctx context.Context, userID string) ([]string, error) {
	tokens := []string{}
	err := s.db.SelectContext(ctx, &tokens, `SELECT token FROM fcm_tokens WHERE user_id = $1`, userID)
	return tokens, translateError(err)
}

func (s *Store) DeleteFCMToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fcm_tokens WHERE token = $1`, token)
	return translateError(err)
}
