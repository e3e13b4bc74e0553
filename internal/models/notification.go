package models

// Notification is one inbox entry. Seq preserves insertion order.
type Notification struct {
	ID         string           `json:"id" db:"id"`
	Seq        int64            `json:"-" db:"seq"`
	ResidentID string           `json:"-" db:"resident_id"`
	Message    string           `json:"message" db:"message"`
	Type       NotificationType `json:"type" db:"type"`
	DriveID    *string          `json:"drive_id" db:"drive_id"`
	Read       bool             `json:"read" db:"is_read"`
	CreatedAt  int64            `json:"created_at" db:"created_at"`
}

// NotificationFilter narrows an inbox listing. Zero value lists everything.
type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationType
	Limit      int
	Offset     int
}

// NotificationStats summarizes an inbox
type NotificationStats struct {
	Total       int      `json:"total_notifications"`
	Unread      int      `json:"unread_notifications"`
	Preferences []string `json:"notification_preferences"`
}
