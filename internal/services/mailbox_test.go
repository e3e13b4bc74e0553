package services

import (
	"reflect"
	"testing"

	"breadvan-backend/internal/models"
)

func TestMailbox_ReadState(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	r := env.resident("r", area.ID, street.ID, 1)

	if _, err := env.mailbox.Receive(env.ctx, r.ID, "first", models.NotificationDriveScheduled, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := env.mailbox.Receive(env.ctx, r.ID, "second", models.NotificationMenuUpdated, nil); err != nil {
		t.Fatal(err)
	}
	if err := env.mailbox.MarkRead(env.ctx, r.ID, 0); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	stats, err := env.mailbox.Stats(env.ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Unread != 1 {
		t.Errorf("expected total=2 unread=1, got %+v", stats)
	}
	if len(stats.Preferences) != len(models.PreferenceTypes) {
		t.Errorf("expected default preferences, got %v", stats.Preferences)
	}

	unread, err := env.mailbox.Inbox(env.ctx, r.ID, models.NotificationFilter{UnreadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 1 || unread[0].Message != "second" {
		t.Errorf("expected only the second notification unread, got %+v", unread)
	}

	for _, idx := range []int{-1, 2} {
		assertKind(t, env.mailbox.MarkRead(env.ctx, r.ID, idx), KindValidation)
	}

	if err := env.mailbox.MarkAllRead(env.ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	stats, _ = env.mailbox.Stats(env.ctx, r.ID)
	if stats.Unread != 0 {
		t.Errorf("expected all read, got %d unread", stats.Unread)
	}

	if err := env.mailbox.Clear(env.ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if inbox := env.inbox(r.ID); len(inbox) != 0 {
		t.Errorf("expected empty inbox, got %d", len(inbox))
	}
}

func TestMailbox_InboxFilters(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	r := env.resident("r", area.ID, street.ID, 1)

	types := []models.NotificationType{
		models.NotificationDriveScheduled,
		models.NotificationArrivalAlert,
		models.NotificationDriveScheduled,
		models.NotificationETAUpdated,
	}
	for i, typ := range types {
		if _, err := env.mailbox.Receive(env.ctx, r.ID, string(rune('a'+i)), typ, nil); err != nil {
			t.Fatal(err)
		}
	}

	scheduled, err := env.mailbox.Inbox(env.ctx, r.ID, models.NotificationFilter{Type: models.NotificationDriveScheduled})
	if err != nil {
		t.Fatal(err)
	}
	if len(scheduled) != 2 || scheduled[0].Message != "a" || scheduled[1].Message != "c" {
		t.Errorf("unexpected type filter result: %+v", scheduled)
	}

	page, err := env.mailbox.Inbox(env.ctx, r.ID, models.NotificationFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Message != "b" || page[1].Message != "c" {
		t.Errorf("unexpected page: %+v", page)
	}

	_, err = env.mailbox.Inbox(env.ctx, r.ID, models.NotificationFilter{Type: "gossip"})
	assertKind(t, err, KindValidation)
	_, err = env.mailbox.Inbox(env.ctx, r.ID, models.NotificationFilter{Limit: -1})
	assertKind(t, err, KindValidation)
	_, err = env.mailbox.Inbox(env.ctx, "nobody", models.NotificationFilter{})
	assertKind(t, err, KindNotFound)
}

func TestMailbox_Preferences(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	r := env.resident("r", area.ID, street.ID, 1)

	got, err := env.mailbox.UpdatePreferences(env.ctx, r.ID, []string{"eta_updated", "arrival_alert", "eta_updated"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"eta_updated", "arrival_alert"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	_, err = env.mailbox.UpdatePreferences(env.ctx, r.ID, []string{"stop_requested"})
	assertKind(t, err, KindValidation)

	stored, _ := env.store.GetResident(env.ctx, r.ID)
	if !reflect.DeepEqual([]string(stored.Preferences), want) {
		t.Errorf("rejected update must not change preferences, got %v", stored.Preferences)
	}

	n, err := env.mailbox.Deliver(env.ctx, stored, "menu", models.NotificationMenuUpdated, nil)
	if err != nil || n != nil {
		t.Errorf("expected menu_updated to be suppressed, got %+v (%v)", n, err)
	}
	n, err = env.mailbox.Deliver(env.ctx, stored, "gone", models.NotificationDriveCancelled, nil)
	if err != nil || n == nil {
		t.Errorf("expected drive_cancelled to bypass preferences, got %+v (%v)", n, err)
	}
	if len(env.notifier.sent[r.ID]) != 1 {
		t.Errorf("expected one push, got %v", env.notifier.sent[r.ID])
	}
}
