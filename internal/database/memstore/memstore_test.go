package memstore

import (
	"context"
	"errors"
	"testing"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

func TestCreateDrive_SlotUniqueUnlessCancelled(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &models.Drive{ID: "d1", AreaID: "a", StreetID: "s", Date: "2026-10-20", Status: models.DriveStatusUpcoming}
	if err := s.CreateDrive(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clash := &models.Drive{ID: "d2", AreaID: "a", StreetID: "s", Date: "2026-10-20", Status: models.DriveStatusUpcoming}
	if err := s.CreateDrive(ctx, clash); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	ok, err := s.TransitionDrive(ctx, "d1", []models.DriveStatus{models.DriveStatusUpcoming}, models.DriveStatusCancelled)
	if err != nil || !ok {
		t.Fatalf("cancel failed: ok=%v err=%v", ok, err)
	}
	if err := s.CreateDrive(ctx, clash); err != nil {
		t.Fatalf("expected slot to free up after cancel, got %v", err)
	}
}

func TestTransitionDrive_OneInProgressPerDriver(t *testing.T) {
	ctx := context.Background()
	s := New()
	upcoming := []models.DriveStatus{models.DriveStatusUpcoming}

	for _, id := range []string{"d1", "d2"} {
		d := &models.Drive{ID: id, DriverID: "drv", AreaID: "a", StreetID: id, Date: "2026-10-20", Status: models.DriveStatusUpcoming}
		if err := s.CreateDrive(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	if ok, err := s.TransitionDrive(ctx, "d1", upcoming, models.DriveStatusInProgress); !ok || err != nil {
		t.Fatalf("expected d1 to start, ok=%v err=%v", ok, err)
	}
	if _, err := s.TransitionDrive(ctx, "d2", upcoming, models.DriveStatusInProgress); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if ok, _ := s.TransitionDrive(ctx, "d1", upcoming, models.DriveStatusInProgress); ok {
		t.Fatal("expected restart of in-progress drive to be rejected")
	}
}

func TestNotifications_IndexAndFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, typ := range []models.NotificationType{
		models.NotificationDriveScheduled,
		models.NotificationMenuUpdated,
		models.NotificationDriveScheduled,
	} {
		if err := s.AppendNotification(ctx, &models.Notification{ID: string(typ), ResidentID: "r", Type: typ}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.MarkNotificationRead(ctx, "r", 3); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.MarkNotificationRead(ctx, "r", 0); err != nil {
		t.Fatal(err)
	}

	unread, _ := s.ListNotifications(ctx, "r", models.NotificationFilter{UnreadOnly: true})
	if len(unread) != 2 {
		t.Errorf("expected 2 unread, got %d", len(unread))
	}
	scheduled, _ := s.ListNotifications(ctx, "r", models.NotificationFilter{Type: models.NotificationDriveScheduled, Offset: 1})
	if len(scheduled) != 1 {
		t.Errorf("expected 1 drive_scheduled after offset, got %d", len(scheduled))
	}

	total, unreadCount, _ := s.CountNotifications(ctx, "r")
	if total != 3 || unreadCount != 2 {
		t.Errorf("expected 3/2, got %d/%d", total, unreadCount)
	}
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := database.SeedDemoData(ctx, s); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	areas, _ := s.ListAreas(ctx)
	if len(areas) != 3 {
		t.Errorf("expected 3 areas, got %d", len(areas))
	}
	drivers, _ := s.ListDrivers(ctx)
	if len(drivers) != 2 || drivers[0].Username != "bob" {
		t.Errorf("unexpected drivers: %+v", drivers)
	}
	residents, _ := s.ListResidents(ctx)
	if len(residents) != 4 {
		t.Errorf("expected 4 residents, got %d", len(residents))
	}

	// Second run is a no-op
	if err := database.SeedDemoData(ctx, s); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountUsers(ctx); n != 6 {
		t.Errorf("expected 6 users after reseed, got %d", n)
	}
}

func TestDeleteStreetAndArea_InUse(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, a := range []string{"a1", "a2"} {
		if err := s.CreateArea(ctx, &models.Area{ID: a, Name: a}); err != nil {
			t.Fatal(err)
		}
	}
	for _, st := range []*models.Street{{ID: "s1", AreaID: "a1"}, {ID: "s2", AreaID: "a1"}, {ID: "s3", AreaID: "a2"}} {
		if err := s.CreateStreet(ctx, st); err != nil {
			t.Fatal(err)
		}
	}
	d := &models.Drive{ID: "d1", DriverID: "drv", AreaID: "a1", StreetID: "s1", Date: "2026-10-20", Status: models.DriveStatusUpcoming}
	if err := s.CreateDrive(ctx, d); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteStreet(ctx, "s1"); !errors.Is(err, database.ErrInUse) {
		t.Fatalf("expected ErrInUse for street with a drive, got %v", err)
	}
	if err := s.DeleteArea(ctx, "a1"); !errors.Is(err, database.ErrInUse) {
		t.Fatalf("expected ErrInUse for area with a drive, got %v", err)
	}
	if _, err := s.GetStreet(ctx, "s1"); err != nil {
		t.Fatalf("expected street to survive rejected delete, got %v", err)
	}

	if err := s.DeleteStreet(ctx, "s2"); err != nil {
		t.Fatalf("unexpected error deleting unused street: %v", err)
	}
	if err := s.DeleteArea(ctx, "a2"); err != nil {
		t.Fatalf("unexpected error deleting unused area: %v", err)
	}
	if _, err := s.GetStreet(ctx, "s3"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected streets of a deleted area to go with it, got %v", err)
	}
}
