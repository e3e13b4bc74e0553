package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"breadvan-backend/internal/database/memstore"
	"breadvan-backend/internal/events"
	"breadvan-backend/internal/models"
)

var _ Store = (*memstore.Store)(nil)

// Thursday morning; tests schedule relative to this
var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]models.NotificationType
}

func (n *recordingNotifier) Notify(_ context.Context, residentID string, notif *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string][]models.NotificationType{}
	}
	n.sent[residentID] = append(n.sent[residentID], notif.Type)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	store     *memstore.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
	mailbox   *Mailbox
	drives    *DriveService
	stops     *StopService
	subs      *SubscriptionService
	tracker   *LocationTracker
	catalog   *CatalogService
	accounts  *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	mailbox := NewMailbox(store, notifier)

	drives := NewDriveService(store, mailbox, publisher, time.UTC)
	drives.now = func() time.Time { return testNow }

	return &testEnv{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		mailbox:   mailbox,
		drives:    drives,
		stops:     NewStopService(store, mailbox, publisher),
		subs:      NewSubscriptionService(store),
		tracker:   NewLocationTracker(store, mailbox, publisher),
		catalog:   NewCatalogService(store),
		accounts:  NewAccountService(store, nil),
	}
}

func (e *testEnv) area(name string) *models.Area {
	e.t.Helper()
	a, err := e.catalog.CreateArea(e.ctx, name)
	if err != nil {
		e.t.Fatalf("create area: %v", err)
	}
	return a
}

func (e *testEnv) street(areaID, name string) *models.Street {
	e.t.Helper()
	s, err := e.catalog.CreateStreet(e.ctx, areaID, name)
	if err != nil {
		e.t.Fatalf("create street: %v", err)
	}
	return s
}

// driver and resident insert straight into the store to skip bcrypt cost
func (e *testEnv) driver(username, areaID, streetID string) *models.Driver {
	e.t.Helper()
	d := &models.Driver{Status: models.DriverStatusAvailable, AreaID: areaID}
	if streetID != "" {
		d.StreetID = &streetID
	}
	user := &models.User{ID: "drv-" + username, Username: username, Password: "x", Role: models.RoleDriver}
	if err := e.store.CreateDriver(e.ctx, user, d); err != nil {
		e.t.Fatalf("create driver: %v", err)
	}
	return d
}

func (e *testEnv) resident(username, areaID, streetID string, house int) *models.Resident {
	e.t.Helper()
	r := &models.Resident{AreaID: areaID, StreetID: streetID, HouseNumber: house}
	user := &models.User{ID: "res-" + username, Username: username, Password: "x", Role: models.RoleResident}
	if err := e.store.CreateResident(e.ctx, user, r); err != nil {
		e.t.Fatalf("create resident: %v", err)
	}
	return r
}

func (e *testEnv) residentAt(username, areaID, streetID string, lat, lng float64) *models.Resident {
	e.t.Helper()
	r := e.resident(username, areaID, streetID, 1)
	if err := e.store.UpdateResidentLocation(e.ctx, r.ID, lat, lng); err != nil {
		e.t.Fatalf("set resident location: %v", err)
	}
	r.Lat, r.Lng = &lat, &lng
	return r
}

func (e *testEnv) schedule(driverID, areaID, streetID, date string) *models.Drive {
	e.t.Helper()
	d, err := e.drives.Schedule(e.ctx, driverID, ScheduleRequest{
		AreaID: areaID, StreetID: streetID, Date: date, Time: "10:00",
	})
	if err != nil {
		e.t.Fatalf("schedule: %v", err)
	}
	return d
}

func (e *testEnv) inbox(residentID string) []models.Notification {
	e.t.Helper()
	inbox, err := e.mailbox.Inbox(e.ctx, residentID, models.NotificationFilter{})
	if err != nil {
		e.t.Fatalf("inbox: %v", err)
	}
	return inbox
}

func countType(inbox []models.Notification, typ models.NotificationType) int {
	n := 0
	for _, notif := range inbox {
		if notif.Type == typ {
			n++
		}
	}
	return n
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %q (%v)", kind, got, err)
	}
}

func strPtr(s string) *string { return &s }
