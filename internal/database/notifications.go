package database

import (
	"context"
	"fmt"

	"breadvan-backend/internal/models"
)

const notificationColumns = `id, seq, resident_id, message, type, drive_id, is_read, created_at`

// AppendNotification adds n to the end of the resident's inbox and fills n.Seq
func (s *Store) AppendNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt == 0 {
		n.CreatedAt = now()
	}
	err := s.db.GetContext(ctx, &n.Seq, `
		INSERT INTO notifications (id, resident_id, message, type, drive_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		n.ID, n.ResidentID, n.Message, n.Type, n.DriveID, n.Read, n.CreatedAt)
	return translateError(err)
}

// ListNotifications returns the inbox in insertion order, narrowed by filter
func (s *Store) ListNotifications(ctx context.Context, residentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE resident_id = $1`
	args := []interface{}{residentID}

	if filter.UnreadOnly {
		query += ` AND is_read = FALSE`
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	notifications := []models.Notification{}
	err := s.db.SelectContext(ctx, &notifications, query, args...)
	return notifications, translateError(err)
}

// MarkNotificationRead flags the index-th entry (0-based, insertion order).
// An index past the end of the inbox yields ErrNotFound.
func (s *Store) MarkNotificationRead(ctx context.Context, residentID string, index int) error {
	if index < 0 {
		return ErrNotFound
	}
	return expectOneRow(s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = (
			SELECT id FROM notifications WHERE resident_id = $1
			ORDER BY seq OFFSET $2 LIMIT 1
		)`, residentID, index))
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, residentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE resident_id = $1 AND is_read = FALSE`, residentID)
	return translateError(err)
}

func (s *Store) ClearNotifications(ctx context.Context, residentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE resident_id = $1`, residentID)
	return translateError(err)
}

// CountNotifications returns the total and unread inbox sizes
func (s *Store) CountNotifications(ctx context.Context, residentID string) (total, unread int, err error) {
	var counts struct {
		Total  int `db:"total"`
		Unread int `db:"unread"`
	}
	err = s.db.GetContext(ctx, &counts, `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_read = FALSE) AS unread
		FROM notifications WHERE resident_id = $1`, residentID)
	if err != nil {
		return 0, 0, translateError(err)
	}
	return counts.Total, counts.Unread, nil
}
