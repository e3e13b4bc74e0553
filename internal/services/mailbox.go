package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// Notifier pushes a freshly stored notification to a live channel (FCM,
// websocket). Delivery is best effort: failures are logged by the notifier and
// never fail the operation that produced the notification.
type Notifier interface {
	Notify(ctx context.Context, residentID string, n *models.Notification)
}

// MailboxStore is what the mailbox needs from persistence
type MailboxStore interface {
	NotificationStore
	GetResident(ctx context.Context, id string) (*models.Resident, error)
	UpdatePreferences(ctx context.Context, id string, prefs []string) error
}

// Mailbox owns every resident's ordered notification inbox
type Mailbox struct {
	store     MailboxStore
	notifiers []Notifier
}

func NewMailbox(store MailboxStore, notifiers ...Notifier) *Mailbox {
	return &Mailbox{store: store, notifiers: notifiers}
}

// AddNotifier registers another delivery channel
func (m *Mailbox) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Receive appends an unread notification to the resident's inbox
func (m *Mailbox) Receive(ctx context.Context, residentID, message string, typ models.NotificationType, driveID *string) (*models.Notification, error) {
	n := &models.Notification{
		ID:         uuid.New().String(),
		ResidentID: residentID,
		Message:    message,
		Type:       typ,
		DriveID:    driveID,
	}
	if err := m.store.AppendNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	for _, notifier := range m.notifiers {
		notifier.Notify(ctx, residentID, n)
	}
	return n, nil
}

// Deliver is Receive gated by the resident's preferences. Types outside the
// preference set are always delivered. It returns nil, nil when the resident
// opted out.
func (m *Mailbox) Deliver(ctx context.Context, resident *models.Resident, message string, typ models.NotificationType, driveID *string) (*models.Notification, error) {
	if models.IsPreferenceType(string(typ)) && !resident.Wants(typ) {
		return nil, nil
	}
	return m.Receive(ctx, resident.ID, message, typ, driveID)
}

// deliverAll fans a notification out, logging instead of failing on errors so
// one bad inbox never blocks the rest
func (m *Mailbox) deliverAll(ctx context.Context, residents []models.Resident, message string, typ models.NotificationType, driveID *string) int {
	sent := 0
	for i := range residents {
		n, err := m.Deliver(ctx, &residents[i], message, typ, driveID)
		if err != nil {
			log.Printf("❌ Failed to deliver %s to resident %s: %v", typ, residents[i].ID, err)
			continue
		}
		if n != nil {
			sent++
		}
	}
	return sent
}

func (m *Mailbox) requireResident(ctx context.Context, residentID string) (*models.Resident, error) {
	resident, err := m.store.GetResident(ctx, residentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Resident not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get resident: %w", err)
	}
	return resident, nil
}

// Inbox returns notifications in insertion order, narrowed by filter
func (m *Mailbox) Inbox(ctx context.Context, residentID string, filter models.NotificationFilter) ([]models.Notification, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, Validation("Limit and offset must not be negative.")
	}
	if filter.Type != "" && !isNotificationType(filter.Type) {
		return nil, Validation("Unknown notification type: %s.", filter.Type)
	}
	if _, err := m.requireResident(ctx, residentID); err != nil {
		return nil, err
	}
	return m.store.ListNotifications(ctx, residentID, filter)
}

// MarkRead flags the notification at index (0-based, insertion order)
func (m *Mailbox) MarkRead(ctx context.Context, residentID string, index int) error {
	if _, err := m.requireResident(ctx, residentID); err != nil {
		return err
	}
	err := m.store.MarkNotificationRead(ctx, residentID, index)
	if errors.Is(err, database.ErrNotFound) {
		return Validation("Invalid notification index.")
	}
	return err
}

func (m *Mailbox) MarkAllRead(ctx context.Context, residentID string) error {
	if _, err := m.requireResident(ctx, residentID); err != nil {
		return err
	}
	return m.store.MarkAllNotificationsRead(ctx, residentID)
}

func (m *Mailbox) Clear(ctx context.Context, residentID string) error {
	if _, err := m.requireResident(ctx, residentID); err != nil {
		return err
	}
	return m.store.ClearNotifications(ctx, residentID)
}

func (m *Mailbox) Stats(ctx context.Context, residentID string) (*models.NotificationStats, error) {
	resident, err := m.requireResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	total, unread, err := m.store.CountNotifications(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	return &models.NotificationStats{
		Total:       total,
		Unread:      unread,
		Preferences: append([]string{}, resident.Preferences...),
	}, nil
}

// UpdatePreferences replaces the resident's preference set. Unknown types are
// rejected; duplicates are collapsed keeping first occurrence order.
func (m *Mailbox) UpdatePreferences(ctx context.Context, residentID string, prefs []string) ([]string, error) {
	cleaned := make([]string, 0, len(prefs))
	seen := map[string]bool{}
	for _, p := range prefs {
		if !models.IsPreferenceType(p) {
			return nil, Validation("Unknown notification preference: %s.", p)
		}
		if !seen[p] {
			seen[p] = true
			cleaned = append(cleaned, p)
		}
	}
	if _, err := m.requireResident(ctx, residentID); err != nil {
		return nil, err
	}
	if err := m.store.UpdatePreferences(ctx, residentID, cleaned); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return cleaned, nil
}

func isNotificationType(t models.NotificationType) bool {
	switch t {
	case models.NotificationDriveScheduled, models.NotificationMenuUpdated,
		models.NotificationETAUpdated, models.NotificationArrivalAlert,
		models.NotificationStopRequested, models.NotificationDriveCancelled:
		return true
	}
	return false
}
