package services

import (
	"strings"
	"testing"
	"time"

	"breadvan-backend/internal/events"
	"breadvan-backend/internal/models"
)

func TestSchedule_Validation(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("St. Augustine")
	street := env.street(area.ID, "Warner Street")
	other := env.area("Tunapuna")
	otherStreet := env.street(other.ID, "Fairly Street")
	driver := env.driver("bob", area.ID, street.ID)

	sixtyDays := testNow.Add(MaxScheduleAhead)

	tests := []struct {
		name    string
		req     ScheduleRequest
		kind    ErrorKind
		message string
	}{
		{
			name:    "bad date",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: street.ID, Date: "16/10/2026", Time: "10:00"},
			kind:    KindValidation,
			message: "Invalid date or time format. Use YYYY-MM-DD and HH:MM.",
		},
		{
			name:    "bad time",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: street.ID, Date: "2026-10-16", Time: "25:00"},
			kind:    KindValidation,
			message: "Invalid date or time format. Use YYYY-MM-DD and HH:MM.",
		},
		{
			name:    "in the past",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: street.ID, Date: "2026-10-15", Time: "08:59"},
			kind:    KindValidation,
			message: "Cannot schedule a drive in the past.",
		},
		{
			name:    "61 days ahead",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: street.ID, Date: sixtyDays.Format(models.DriveDateLayout), Time: "09:01"},
			kind:    KindValidation,
			message: "Cannot schedule a drive more than 60 days in advance.",
		},
		{
			name:    "bad eta",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: street.ID, Date: "2026-10-16", Time: "10:00", ETA: strPtr("10am")},
			kind:    KindValidation,
			message: "Invalid ETA format. Use HH:MM.",
		},
		{
			name:    "unknown area",
			req:     ScheduleRequest{AreaID: "nope", StreetID: street.ID, Date: "2026-10-16", Time: "10:00"},
			kind:    KindNotFound,
			message: "Invalid area ID.",
		},
		{
			name:    "street from another area",
			req:     ScheduleRequest{AreaID: area.ID, StreetID: otherStreet.ID, Date: "2026-10-16", Time: "10:00"},
			kind:    KindNotFound,
			message: "Invalid street ID.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.drives.Schedule(env.ctx, driver.ID, tt.req)
			assertKind(t, err, tt.kind)
			if err.Error() != tt.message {
				t.Errorf("expected %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestSchedule_ExactlySixtyDaysAllowed(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)

	limit := testNow.Add(MaxScheduleAhead)
	drive, err := env.drives.Schedule(env.ctx, driver.ID, ScheduleRequest{
		AreaID:   area.ID,
		StreetID: street.ID,
		Date:     limit.Format(models.DriveDateLayout),
		Time:     limit.Format(models.DriveTimeLayout),
	})
	if err != nil {
		t.Fatalf("expected boundary to be accepted, got %v", err)
	}
	if drive.Status != models.DriveStatusUpcoming {
		t.Errorf("expected Upcoming, got %s", drive.Status)
	}
}

func TestSchedule_OneActiveDrivePerSlot(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	d1 := env.driver("d1", area.ID, street.ID)
	d2 := env.driver("d2", area.ID, street.ID)

	first := env.schedule(d1.ID, area.ID, street.ID, "2026-10-16")

	_, err := env.drives.Schedule(env.ctx, d2.ID, ScheduleRequest{
		AreaID: area.ID, StreetID: street.ID, Date: "2026-10-16", Time: "15:00",
	})
	assertKind(t, err, KindValidation)
	if err.Error() != "A drive is already scheduled for this area and street on this date." {
		t.Errorf("unexpected message: %v", err)
	}

	if _, err := env.drives.Cancel(env.ctx, d1.ID, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.drives.Schedule(env.ctx, d2.ID, ScheduleRequest{
		AreaID: area.ID, StreetID: street.ID, Date: "2026-10-16", Time: "15:00",
	}); err != nil {
		t.Fatalf("expected cancelled slot to be bookable, got %v", err)
	}
}

func TestSchedule_NotifiesStreetResidentsByPreference(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	otherStreet := env.street(area.ID, "Z")
	driver := env.driver("d", area.ID, street.ID)

	keen := env.resident("keen", area.ID, street.ID, 1)
	quiet := env.resident("quiet", area.ID, street.ID, 2)
	away := env.resident("away", area.ID, otherStreet.ID, 3)

	if _, err := env.mailbox.UpdatePreferences(env.ctx, quiet.ID, []string{"menu_updated"}); err != nil {
		t.Fatal(err)
	}

	drive := env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")

	inbox := env.inbox(keen.ID)
	if len(inbox) != 1 || inbox[0].Type != models.NotificationDriveScheduled {
		t.Fatalf("expected one drive_scheduled, got %+v", inbox)
	}
	if inbox[0].DriveID == nil || *inbox[0].DriveID != drive.ID {
		t.Errorf("expected drive id %s on notification", drive.ID)
	}
	if len(env.inbox(quiet.ID)) != 0 {
		t.Error("expected opted-out resident to get nothing")
	}
	if len(env.inbox(away.ID)) != 0 {
		t.Error("expected resident on another street to get nothing")
	}
	if got := env.notifier.sent[keen.ID]; len(got) != 1 {
		t.Errorf("expected one push to keen resident, got %v", got)
	}
}

func TestStart_AtMostOneInProgress(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	s1 := env.street(area.ID, "Y")
	s2 := env.street(area.ID, "Z")
	driver := env.driver("d", area.ID, s1.ID)

	first := env.schedule(driver.ID, area.ID, s1.ID, "2026-10-16")
	second := env.schedule(driver.ID, area.ID, s2.ID, "2026-10-16")

	started, err := env.drives.Start(env.ctx, driver.ID, first.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.DriveStatusInProgress {
		t.Errorf("expected In Progress, got %s", started.Status)
	}

	_, err = env.drives.Start(env.ctx, driver.ID, second.ID)
	assertKind(t, err, KindConflict)
	if !strings.Contains(err.Error(), first.ID) {
		t.Errorf("expected active drive id in %q", err.Error())
	}
}

func TestStart_Guards(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	owner := env.driver("owner", area.ID, street.ID)
	intruder := env.driver("intruder", area.ID, street.ID)

	drive := env.schedule(owner.ID, area.ID, street.ID, "2026-10-16")

	_, err := env.drives.Start(env.ctx, intruder.ID, drive.ID)
	assertKind(t, err, KindForbidden)

	_, err = env.drives.Start(env.ctx, owner.ID, "missing")
	assertKind(t, err, KindNotFound)

	if _, err := env.drives.Cancel(env.ctx, owner.ID, drive.ID); err != nil {
		t.Fatal(err)
	}
	_, err = env.drives.Start(env.ctx, owner.ID, drive.ID)
	assertKind(t, err, KindConflict)
}

func TestEnd(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)

	_, err := env.drives.End(env.ctx, driver.ID)
	assertKind(t, err, KindConflict)
	if err.Error() != "No drive in progress." {
		t.Errorf("unexpected message %q", err.Error())
	}

	drive := env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")
	if _, err := env.drives.Start(env.ctx, driver.ID, drive.ID); err != nil {
		t.Fatal(err)
	}
	ended, err := env.drives.End(env.ctx, driver.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.ID != drive.ID || ended.Status != models.DriveStatusCompleted {
		t.Errorf("unexpected ended drive %+v", ended)
	}
	d, _ := env.store.GetDriver(env.ctx, driver.ID)
	if d.Status != models.DriverStatusAvailable {
		t.Errorf("expected Available, got %s", d.Status)
	}
}

func TestCancel_NotifiesEachAffectedResidentOnce(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)
	both := env.resident("both", area.ID, street.ID, 1)
	subOnly := env.resident("sub", area.ID, street.ID, 2)
	bystander := env.resident("bystander", area.ID, street.ID, 3)

	drive := env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")
	for _, r := range []*models.Resident{both, subOnly} {
		if err := env.subs.Subscribe(env.ctx, r.ID, drive.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.stops.RequestStop(env.ctx, both.ID, drive.ID); err != nil {
		t.Fatal(err)
	}

	cancelled, err := env.drives.Cancel(env.ctx, driver.ID, drive.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.DriveStatusCancelled {
		t.Errorf("expected Cancelled, got %s", cancelled.Status)
	}

	if n := countType(env.inbox(both.ID), models.NotificationDriveCancelled); n != 1 {
		t.Errorf("expected 1 drive_cancelled for subscriber with stop, got %d", n)
	}
	if n := countType(env.inbox(subOnly.ID), models.NotificationDriveCancelled); n != 1 {
		t.Errorf("expected 1 drive_cancelled for subscriber, got %d", n)
	}
	if n := countType(env.inbox(bystander.ID), models.NotificationDriveCancelled); n != 0 {
		t.Errorf("expected no drive_cancelled for bystander, got %d", n)
	}

	// Cancelling again changes nothing
	if _, err := env.drives.Cancel(env.ctx, driver.ID, drive.ID); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if n := countType(env.inbox(both.ID), models.NotificationDriveCancelled); n != 1 {
		t.Errorf("expected repeat cancel to be silent, got %d", n)
	}
}

func TestCancel_FromEveryState(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)

	inProgress := env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")
	if _, err := env.drives.Start(env.ctx, driver.ID, inProgress.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.drives.Cancel(env.ctx, driver.ID, inProgress.ID); err != nil {
		t.Fatalf("cancel in progress: %v", err)
	}
	d, _ := env.store.GetDriver(env.ctx, driver.ID)
	if d.Status != models.DriverStatusAvailable {
		t.Errorf("expected driver freed after cancelling active drive, got %s", d.Status)
	}

	completed := env.schedule(driver.ID, area.ID, street.ID, "2026-10-17")
	if _, err := env.drives.Start(env.ctx, driver.ID, completed.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.drives.End(env.ctx, driver.ID); err != nil {
		t.Fatal(err)
	}
	got, err := env.drives.Cancel(env.ctx, driver.ID, completed.ID)
	if err != nil {
		t.Fatalf("cancel completed: %v", err)
	}
	if got.Status != models.DriveStatusCancelled {
		t.Errorf("expected Cancelled, got %s", got.Status)
	}

	intruder := env.driver("other", area.ID, street.ID)
	_, err = env.drives.Cancel(env.ctx, intruder.ID, completed.ID)
	assertKind(t, err, KindForbidden)
}

func TestUpdateMenuAndETA(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)
	fan := env.resident("fan", area.ID, street.ID, 1)
	noMenu := env.resident("nomenu", area.ID, street.ID, 2)

	drive := env.schedule(driver.ID, area.ID, street.ID, "2026-10-16")
	for _, r := range []*models.Resident{fan, noMenu} {
		if err := env.subs.Subscribe(env.ctx, r.ID, drive.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.mailbox.UpdatePreferences(env.ctx, noMenu.ID, []string{"eta_updated"}); err != nil {
		t.Fatal(err)
	}

	updated, err := env.drives.UpdateMenu(env.ctx, driver.ID, drive.ID, "Coconut bake")
	if err != nil {
		t.Fatalf("update menu: %v", err)
	}
	if updated.Menu == nil || *updated.Menu != "Coconut bake" {
		t.Errorf("menu not set: %+v", updated.Menu)
	}

	_, err = env.drives.UpdateETA(env.ctx, driver.ID, drive.ID, "half past ten")
	assertKind(t, err, KindValidation)

	if _, err := env.drives.UpdateETA(env.ctx, driver.ID, drive.ID, "10:30"); err != nil {
		t.Fatalf("update eta: %v", err)
	}
	stored, _ := env.drives.Get(env.ctx, drive.ID)
	if stored.ETA == nil || *stored.ETA != "10:30" || stored.Menu == nil || *stored.Menu != "Coconut bake" {
		t.Errorf("expected menu and eta persisted, got %+v", stored)
	}

	if n := countType(env.inbox(fan.ID), models.NotificationMenuUpdated); n != 1 {
		t.Errorf("expected 1 menu_updated for fan, got %d", n)
	}
	if n := countType(env.inbox(fan.ID), models.NotificationETAUpdated); n != 1 {
		t.Errorf("expected 1 eta_updated for fan, got %d", n)
	}
	if n := countType(env.inbox(noMenu.ID), models.NotificationMenuUpdated); n != 0 {
		t.Errorf("expected menu_updated to respect preferences, got %d", n)
	}
	if n := countType(env.inbox(noMenu.ID), models.NotificationETAUpdated); n != 1 {
		t.Errorf("expected 1 eta_updated, got %d", n)
	}

	intruder := env.driver("other", area.ID, street.ID)
	_, err = env.drives.UpdateMenu(env.ctx, intruder.ID, drive.ID, "stolen")
	assertKind(t, err, KindForbidden)
}

func TestActiveDrivesAndDelete(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	s1 := env.street(area.ID, "Y")
	s2 := env.street(area.ID, "Z")
	driver := env.driver("d", area.ID, s1.ID)

	running := env.schedule(driver.ID, area.ID, s1.ID, "2026-10-16")
	later := env.schedule(driver.ID, area.ID, s2.ID, "2026-10-20")
	done := env.schedule(driver.ID, area.ID, s2.ID, "2026-10-18")
	if _, err := env.drives.Cancel(env.ctx, driver.ID, done.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.drives.Start(env.ctx, driver.ID, running.ID); err != nil {
		t.Fatal(err)
	}

	active, err := env.drives.ActiveDrives(env.ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].ID != running.ID || active[1].ID != later.ID {
		t.Errorf("unexpected active drives: %+v", active)
	}

	onStreet, err := env.drives.DrivesForStreet(env.ctx, s2.ID, "2026-10-20")
	if err != nil {
		t.Fatal(err)
	}
	if len(onStreet) != 1 || onStreet[0].ID != later.ID {
		t.Errorf("unexpected street drives: %+v", onStreet)
	}

	if err := env.drives.Delete(env.ctx, running.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	d, _ := env.store.GetDriver(env.ctx, driver.ID)
	if d.Status != models.DriverStatusAvailable {
		t.Errorf("expected driver freed after delete, got %s", d.Status)
	}
	assertKind(t, env.drives.Delete(env.ctx, running.ID), KindNotFound)
}

func TestEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("D", area.ID, street.ID)
	resident := env.resident("R", area.ID, street.ID, 5)

	tomorrow := testNow.AddDate(0, 0, 1).Format(models.DriveDateLayout)
	drive, err := env.drives.Schedule(env.ctx, driver.ID, ScheduleRequest{
		AreaID: area.ID, StreetID: street.ID, Date: tomorrow, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if drive.Status != models.DriveStatusUpcoming {
		t.Fatalf("expected Upcoming, got %s", drive.Status)
	}

	stop, err := env.stops.RequestStop(env.ctx, resident.ID, drive.ID)
	if err != nil {
		t.Fatalf("request stop: %v", err)
	}
	if stop.DriveID != drive.ID || stop.ResidentID != resident.ID {
		t.Errorf("unexpected stop %+v", stop)
	}
	if n := countType(env.inbox(resident.ID), models.NotificationStopRequested); n != 1 {
		t.Errorf("expected stop_requested in inbox, got %d", n)
	}

	if _, err := env.drives.Start(env.ctx, driver.ID, drive.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, _ := env.drives.Get(env.ctx, drive.ID)
	d, _ := env.store.GetDriver(env.ctx, driver.ID)
	if got.Status != models.DriveStatusInProgress || d.Status != models.DriverStatusBusy {
		t.Fatalf("expected In Progress/Busy, got %s/%s", got.Status, d.Status)
	}

	if _, err := env.drives.End(env.ctx, driver.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	got, _ = env.drives.Get(env.ctx, drive.ID)
	d, _ = env.store.GetDriver(env.ctx, driver.ID)
	if got.Status != models.DriveStatusCompleted || d.Status != models.DriverStatusAvailable {
		t.Fatalf("expected Completed/Available, got %s/%s", got.Status, d.Status)
	}

	want := []string{events.DriveScheduled, events.StopRequested, events.DriveStarted, events.DriveCompleted}
	if got := env.publisher.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestScheduleRespectsLocation(t *testing.T) {
	env := newTestEnv(t)
	area := env.area("X")
	street := env.street(area.ID, "Y")
	driver := env.driver("d", area.ID, street.ID)

	// 09:00 UTC is 05:00 in Port of Spain, so 06:00 local is still ahead
	pos := time.FixedZone("AST", -4*60*60)
	env.drives.loc = pos
	if _, err := env.drives.Schedule(env.ctx, driver.ID, ScheduleRequest{
		AreaID: area.ID, StreetID: street.ID, Date: "2026-10-15", Time: "06:00",
	}); err != nil {
		t.Fatalf("expected local-time schedule to pass, got %v", err)
	}
}
