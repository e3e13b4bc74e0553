package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"breadvan-backend/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("get: %w", sql.ErrNoRows), ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, ErrDuplicate},
		{"foreign key violation", &pq.Error{Code: "23503"}, ErrInUse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translateError(tc.in); !errors.Is(got, tc.want) && got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := &pq.Error{Code: "23502"}
	if got := translateError(other); got != other {
		t.Errorf("expected not-null error to pass through, got %v", got)
	}
}

func TestGetArea_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, created_at FROM areas WHERE id = (.+)`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

	_, err := store.GetArea(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListStreets_ByArea(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "area_id", "created_at"}).
		AddRow("s1", "Warner Street", "a1", int64(1)).
		AddRow("s2", "College Road", "a1", int64(2))
	mock.ExpectQuery(`SELECT id, name, area_id, created_at FROM streets WHERE area_id = (.+)`).
		WithArgs("a1").
		WillReturnRows(rows)

	streets, err := store.ListStreets(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(streets) != 2 || streets[0].AreaID != "a1" {
		t.Errorf("unexpected streets: %+v", streets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteItem_Missing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM items WHERE id = (.+)`).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteItem(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDrive_DuplicateSlot(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO drives`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_drives_area_street_date_active"})

	err := store.CreateDrive(context.Background(), &models.Drive{
		ID: "d1", DriverID: "drv", AreaID: "a1", StreetID: "s1",
		Date: "2026-10-17", Time: "10:00", Status: models.DriveStatusUpcoming,
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTransitionDrive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE drives SET status`).
		WithArgs(models.DriveStatusInProgress, sqlmock.AnyArg(), "d1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE drives SET status`).
		WithArgs(models.DriveStatusInProgress, sqlmock.AnyArg(), "d1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	from := []models.DriveStatus{models.DriveStatusUpcoming}
	ok, err := store.TransitionDrive(context.Background(), "d1", from, models.DriveStatusInProgress)
	if err != nil || !ok {
		t.Fatalf("expected first transition to win, got ok=%v err=%v", ok, err)
	}
	ok, err = store.TransitionDrive(context.Background(), "d1", from, models.DriveStatusInProgress)
	if err != nil || ok {
		t.Fatalf("expected second transition to lose, got ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateStop_Duplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO stops`).
		WithArgs("st1", "d1", "r1", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateStop(context.Background(), &models.Stop{ID: "st1", DriveID: "d1", ResidentID: "r1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAppendNotification_SetsSeq(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs("n1", "r1", "hello", models.NotificationStopRequested, nil, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	n := &models.Notification{ID: "n1", ResidentID: "r1", Message: "hello", Type: models.NotificationStopRequested}
	if err := store.AppendNotification(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Seq != 42 {
		t.Errorf("expected seq 42, got %d", n.Seq)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListNotifications_Filter(t *testing.T) {
	store, mock := newMockStore(t)

	cols := []string{"id", "seq", "resident_id", "message", "type", "drive_id", "is_read", "created_at"}
	mock.ExpectQuery(`FROM notifications WHERE resident_id = \$1 AND is_read = FALSE AND type = \$2 ORDER BY seq LIMIT \$3 OFFSET \$4`).
		WithArgs("r1", models.NotificationMenuUpdated, 10, 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("n6", int64(6), "r1", "menu", "menu_updated", "d1", false, int64(100)))

	got, err := store.ListNotifications(context.Background(), "r1", models.NotificationFilter{
		UnreadOnly: true,
		Type:       models.NotificationMenuUpdated,
		Limit:      10,
		Offset:     5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DriveID == nil || *got[0].DriveID != "d1" {
		t.Errorf("unexpected notifications: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMarkNotificationRead_OutOfRange(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE`).
		WithArgs("r1", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.MarkNotificationRead(context.Background(), "r1", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.MarkNotificationRead(context.Background(), "r1", -1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for negative index, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCountNotifications(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread"}).AddRow(5, 2))

	total, unread, err := store.CountNotifications(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || unread != 2 {
		t.Errorf("expected 5/2, got %d/%d", total, unread)
	}
}

func TestUpsertStock_ReturnsExistingID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO driver_stock`).
		WithArgs("new-id", "drv", "item", 7, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	stock := &models.DriverStock{ID: "new-id", DriverID: "drv", ItemID: "item", Quantity: 7}
	if err := store.UpsertStock(context.Background(), stock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock.ID != "existing-id" {
		t.Errorf("expected existing-id, got %s", stock.ID)
	}
}

func TestGetDriver_WithoutLocation(t *testing.T) {
	store, mock := newMockStore(t)

	cols := []string{"id", "username", "status", "area_id", "street_id", "last_lat", "last_lng", "created_at"}
	mock.ExpectQuery(`FROM users u\s+JOIN drivers d`).
		WithArgs("drv").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("drv", "bob", "Offline", "a1", nil, nil, nil, int64(1)))

	driver, err := store.GetDriver(context.Background(), "drv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.HasLocation() {
		t.Error("expected driver without location")
	}
	if driver.Status != models.DriverStatusOffline {
		t.Errorf("expected Offline, got %s", driver.Status)
	}
}

func TestCreateDriver_RollsBackOnDuplicateUsername(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := store.CreateDriver(context.Background(),
		&models.User{ID: "u1", Username: "bob", Password: "x", Role: models.RoleDriver},
		&models.Driver{Status: models.DriverStatusOffline, AreaID: "a1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscribe_Idempotent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO drive_subscriptions`).
		WithArgs("r1", "d1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Subscribe(context.Background(), "r1", "d1"); err != nil {
		t.Fatalf("expected repeat subscribe to succeed, got %v", err)
	}
}

func TestDeleteStreet_InUse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM streets WHERE id = (.+)`).
		WithArgs("s1").
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	if err := store.DeleteStreet(context.Background(), "s1"); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
