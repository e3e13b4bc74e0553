package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/events"
	"breadvan-backend/internal/models"
)

// MaxScheduleAhead is how far in advance a drive may be booked
const MaxScheduleAhead = 60 * 24 * time.Hour

// ScheduleRequest is the driver's input for a new drive
type ScheduleRequest struct {
	AreaID   string  `json:"areaId"`
	StreetID string  `json:"streetId"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Time     string  `json:"time"` // HH:MM
	Menu     *string `json:"menu"`
	ETA      *string `json:"eta"` // HH:MM
}

// DriveService runs the drive state machine
type DriveService struct {
	store     Store
	mailbox   *Mailbox
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

func NewDriveService(store Store, mailbox *Mailbox, publisher events.Publisher, loc *time.Location) *DriveService {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &DriveService{
		store:     store,
		mailbox:   mailbox,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *DriveService) publish(ctx context.Context, eventType string, drive *models.Drive, data map[string]string) {
	e := events.New(eventType)
	e.DriveID = drive.ID
	e.DriverID = drive.DriverID
	e.AreaID = drive.AreaID
	e.StreetID = drive.StreetID
	e.Status = string(drive.Status)
	e.Data = data
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("⚠️  Failed to publish %s for drive %s: %v", eventType, drive.ID, err)
	}
}

func validETA(eta string) bool {
	_, err := time.Parse(models.DriveTimeLayout, eta)
	return err == nil
}

func (s *DriveService) requireDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	driver, err := s.store.GetDriver(ctx, driverID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Driver not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return driver, nil
}

// ownedDrive loads a drive and checks that driverID owns it
func (s *DriveService) ownedDrive(ctx context.Context, driverID, driveID string) (*models.Drive, error) {
	drive, err := s.store.GetDrive(ctx, driveID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Drive not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get drive: %w", err)
	}
	if drive.DriverID != driverID {
		return nil, Forbidden("Drive not found or you don't have permission.")
	}
	return drive, nil
}

// Schedule books a new Upcoming drive and tells the street's residents
func (s *DriveService) Schedule(ctx context.Context, driverID string, req ScheduleRequest) (*models.Drive, error) {
	if _, err := s.requireDriver(ctx, driverID); err != nil {
		return nil, err
	}

	drive := &models.Drive{
		ID:       uuid.New().String(),
		DriverID: driverID,
		AreaID:   req.AreaID,
		StreetID: req.StreetID,
		Date:     req.Date,
		Time:     req.Time,
		Status:   models.DriveStatusUpcoming,
		Menu:     req.Menu,
		ETA:      req.ETA,
	}

	when, err := drive.ScheduledTime(s.loc)
	if err != nil {
		return nil, Validation("Invalid date or time format. Use YYYY-MM-DD and HH:MM.")
	}
	now := s.now().In(s.loc)
	if when.Before(now) {
		return nil, Validation("Cannot schedule a drive in the past.")
	}
	if when.After(now.Add(MaxScheduleAhead)) {
		return nil, Validation("Cannot schedule a drive more than 60 days in advance.")
	}
	drive.ScheduledAt = when.Unix()

	if _, err := s.store.GetArea(ctx, req.AreaID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFound("Invalid area ID.")
		}
		return nil, fmt.Errorf("get area: %w", err)
	}
	street, err := s.store.GetStreet(ctx, req.StreetID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && street.AreaID != req.AreaID) {
		return nil, NotFound("Invalid street ID.")
	}
	if err != nil {
		return nil, fmt.Errorf("get street: %w", err)
	}

	if req.ETA != nil && *req.ETA != "" && !validETA(*req.ETA) {
		return nil, Validation("Invalid ETA format. Use HH:MM.")
	}
	if req.ETA != nil && *req.ETA == "" {
		drive.ETA = nil
	}

	// The pre-check gives the precise message; the unique index settles races.
	if _, err := s.store.FindDriveFor(ctx, req.AreaID, req.StreetID, req.Date); err == nil {
		return nil, Validation("A drive is already scheduled for this area and street on this date.")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find drive: %w", err)
	}
	if err := s.store.CreateDrive(ctx, drive); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, Validation("A drive is already scheduled for this area and street on this date.")
		}
		return nil, fmt.Errorf("create drive: %w", err)
	}

	log.Printf("✅ Drive %s scheduled by %s for %s on %s %s", drive.ID, driverID, street.Name, drive.Date, drive.Time)

	residents, err := s.store.ResidentsOnStreet(ctx, drive.AreaID, drive.StreetID)
	if err != nil {
		log.Printf("❌ Failed to load residents for drive %s: %v", drive.ID, err)
	} else {
		msg := fmt.Sprintf("A bread van drive is scheduled for %s on %s at %s.", street.Name, drive.Date, drive.Time)
		sent := s.mailbox.deliverAll(ctx, residents, msg, models.NotificationDriveScheduled, &drive.ID)
		log.Printf("   📬 Notified %d/%d residents of drive %s", sent, len(residents), drive.ID)
	}

	s.publish(ctx, events.DriveScheduled, drive, map[string]string{"date": drive.Date, "time": drive.Time})
	return drive, nil
}

// Start moves an Upcoming drive to In Progress and marks the driver Busy
func (s *DriveService) Start(ctx context.Context, driverID, driveID string) (*models.Drive, error) {
	if _, err := s.requireDriver(ctx, driverID); err != nil {
		return nil, err
	}

	active, err := s.store.FindActiveDrive(ctx, driverID)
	if err == nil {
		return nil, Conflict("You are already on drive %s.", active.ID)
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find active drive: %w", err)
	}

	drive, err := s.ownedDrive(ctx, driverID, driveID)
	if err != nil {
		return nil, err
	}
	next, ok := drive.Status.Next(models.DriveEventStart)
	if !ok {
		return nil, Conflict("Drive not found or cannot be started.")
	}

	won, err := s.store.TransitionDrive(ctx, drive.ID, []models.DriveStatus{drive.Status}, next)
	if errors.Is(err, database.ErrDuplicate) {
		// Lost a race against another start by the same driver
		if active, findErr := s.store.FindActiveDrive(ctx, driverID); findErr == nil {
			return nil, Conflict("You are already on drive %s.", active.ID)
		}
		return nil, Conflict("Drive not found or cannot be started.")
	}
	if err != nil {
		return nil, fmt.Errorf("start drive: %w", err)
	}
	if !won {
		return nil, Conflict("Drive not found or cannot be started.")
	}
	drive.Status = next

	if err := s.store.UpdateDriverStatus(ctx, driverID, models.DriverStatusBusy); err != nil {
		return nil, fmt.Errorf("update driver status: %w", err)
	}

	log.Printf("🚐 Drive %s started by %s", drive.ID, driverID)
	s.publish(ctx, events.DriveStarted, drive, nil)
	return drive, nil
}

// End completes the driver's In Progress drive and frees the driver
func (s *DriveService) End(ctx context.Context, driverID string) (*models.Drive, error) {
	if _, err := s.requireDriver(ctx, driverID); err != nil {
		return nil, err
	}

	drive, err := s.store.FindActiveDrive(ctx, driverID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, Conflict("No drive in progress.")
	}
	if err != nil {
		return nil, fmt.Errorf("find active drive: %w", err)
	}

	next, _ := drive.Status.Next(models.DriveEventEnd)
	won, err := s.store.TransitionDrive(ctx, drive.ID, []models.DriveStatus{drive.Status}, next)
	if err != nil {
		return nil, fmt.Errorf("end drive: %w", err)
	}
	if !won {
		return nil, Conflict("No drive in progress.")
	}
	drive.Status = next

	if err := s.store.UpdateDriverStatus(ctx, driverID, models.DriverStatusAvailable); err != nil {
		return nil, fmt.Errorf("update driver status: %w", err)
	}

	log.Printf("🏁 Drive %s completed by %s", drive.ID, driverID)
	s.publish(ctx, events.DriveCompleted, drive, nil)
	return drive, nil
}

// Cancel moves an owned drive to Cancelled from any status. Cancelling an
// already cancelled drive is a no-op and notifies nobody.
func (s *DriveService) Cancel(ctx context.Context, driverID, driveID string) (*models.Drive, error) {
	drive, err := s.ownedDrive(ctx, driverID, driveID)
	if err != nil {
		return nil, err
	}
	if drive.Status == models.DriveStatusCancelled {
		return drive, nil
	}

	prev := drive.Status
	next, ok := prev.Next(models.DriveEventCancel)
	if !ok {
		return nil, Conflict("Drive cannot be cancelled.")
	}
	won, err := s.store.TransitionDrive(ctx, drive.ID, []models.DriveStatus{prev}, next)
	if err != nil {
		return nil, fmt.Errorf("cancel drive: %w", err)
	}
	if !won {
		// Status moved underneath us; reload and report the fresh state
		current, getErr := s.store.GetDrive(ctx, drive.ID)
		if getErr == nil && current.Status == models.DriveStatusCancelled {
			return current, nil
		}
		return nil, Conflict("Drive changed while cancelling, try again.")
	}
	drive.Status = next

	if prev == models.DriveStatusInProgress {
		if err := s.store.UpdateDriverStatus(ctx, driverID, models.DriverStatusAvailable); err != nil {
			return nil, fmt.Errorf("update driver status: %w", err)
		}
	}
	if prev == models.DriveStatusCompleted {
		log.Printf("⚠️  Completed drive %s cancelled by %s", drive.ID, driverID)
	}

	notified := s.notifyCancelled(ctx, drive)
	log.Printf("🛑 Drive %s cancelled by %s (%d residents notified)", drive.ID, driverID, notified)
	s.publish(ctx, events.DriveCancelled, drive, map[string]string{"previous_status": string(prev)})
	return drive, nil
}

// notifyCancelled tells every subscriber and stop holder once
func (s *DriveService) notifyCancelled(ctx context.Context, drive *models.Drive) int {
	ids := []string{}
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	subscribers, err := s.store.Subscribers(ctx, drive.ID)
	if err != nil {
		log.Printf("❌ Failed to load subscribers for drive %s: %v", drive.ID, err)
	}
	for _, id := range subscribers {
		add(id)
	}
	stops, err := s.store.ListStopsByDrive(ctx, drive.ID)
	if err != nil {
		log.Printf("❌ Failed to load stops for drive %s: %v", drive.ID, err)
	}
	for _, st := range stops {
		add(st.ResidentID)
	}

	msg := fmt.Sprintf("Drive %s on %s at %s has been cancelled.", drive.ID, drive.Date, drive.Time)
	sent := 0
	for _, id := range ids {
		if _, err := s.mailbox.Receive(ctx, id, msg, models.NotificationDriveCancelled, &drive.ID); err != nil {
			log.Printf("❌ Failed to notify resident %s of cancellation: %v", id, err)
			continue
		}
		sent++
	}
	return sent
}

func (s *DriveService) subscriberResidents(ctx context.Context, driveID string) []models.Resident {
	ids, err := s.store.Subscribers(ctx, driveID)
	if err != nil {
		log.Printf("❌ Failed to load subscribers for drive %s: %v", driveID, err)
		return nil
	}
	residents := make([]models.Resident, 0, len(ids))
	for _, id := range ids {
		r, err := s.store.GetResident(ctx, id)
		if err != nil {
			log.Printf("⚠️  Subscriber %s of drive %s not loadable: %v", id, driveID, err)
			continue
		}
		residents = append(residents, *r)
	}
	return residents
}

// UpdateMenu replaces the drive's menu and tells subscribers
func (s *DriveService) UpdateMenu(ctx context.Context, driverID, driveID, menu string) (*models.Drive, error) {
	drive, err := s.ownedDrive(ctx, driverID, driveID)
	if err != nil {
		return nil, err
	}
	if _, ok := drive.Status.Next(models.DriveEventUpdate); !ok {
		return nil, Conflict("Drive cannot be updated.")
	}
	if err := s.store.UpdateDriveDetails(ctx, drive.ID, &menu, drive.ETA); err != nil {
		return nil, fmt.Errorf("update menu: %w", err)
	}
	drive.Menu = &menu

	msg := fmt.Sprintf("The menu for drive %s on %s has been updated: %s", drive.ID, drive.Date, menu)
	s.mailbox.deliverAll(ctx, s.subscriberResidents(ctx, drive.ID), msg, models.NotificationMenuUpdated, &drive.ID)
	s.publish(ctx, events.DriveUpdated, drive, map[string]string{"menu": menu})
	return drive, nil
}

// UpdateETA replaces the drive's ETA (HH:MM) and tells subscribers
func (s *DriveService) UpdateETA(ctx context.Context, driverID, driveID, eta string) (*models.Drive, error) {
	drive, err := s.ownedDrive(ctx, driverID, driveID)
	if err != nil {
		return nil, err
	}
	if !validETA(eta) {
		return nil, Validation("Invalid ETA format. Use HH:MM.")
	}
	if _, ok := drive.Status.Next(models.DriveEventUpdate); !ok {
		return nil, Conflict("Drive cannot be updated.")
	}
	if err := s.store.UpdateDriveDetails(ctx, drive.ID, drive.Menu, &eta); err != nil {
		return nil, fmt.Errorf("update eta: %w", err)
	}
	drive.ETA = &eta

	msg := fmt.Sprintf("Drive %s on %s is now expected at %s.", drive.ID, drive.Date, eta)
	s.mailbox.deliverAll(ctx, s.subscriberResidents(ctx, drive.ID), msg, models.NotificationETAUpdated, &drive.ID)
	s.publish(ctx, events.DriveUpdated, drive, map[string]string{"eta": eta})
	return drive, nil
}

// ActiveDrives lists the driver's Upcoming and In Progress drives
func (s *DriveService) ActiveDrives(ctx context.Context, driverID string) ([]models.Drive, error) {
	if _, err := s.requireDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.store.ListDrivesByDriver(ctx, driverID,
		[]models.DriveStatus{models.DriveStatusUpcoming, models.DriveStatusInProgress})
}

// DriverHistory lists every drive the driver ever scheduled
func (s *DriveService) DriverHistory(ctx context.Context, driverID string) ([]models.Drive, error) {
	if _, err := s.requireDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.store.ListDrivesByDriver(ctx, driverID, models.DriveStatuses)
}

// DrivesForStreet lists drives on a street, optionally for one date
func (s *DriveService) DrivesForStreet(ctx context.Context, streetID, date string) ([]models.Drive, error) {
	if date != "" {
		if _, err := time.Parse(models.DriveDateLayout, date); err != nil {
			return nil, Validation("Invalid date format. Use YYYY-MM-DD.")
		}
	}
	if _, err := s.store.GetStreet(ctx, streetID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFound("Invalid street ID.")
		}
		return nil, fmt.Errorf("get street: %w", err)
	}
	return s.store.ListDrivesByStreet(ctx, streetID, date)
}

// UpcomingDrives lists every drive still accepting stops
func (s *DriveService) UpcomingDrives(ctx context.Context) ([]models.Drive, error) {
	return s.store.ListDrivesByStatus(ctx, []models.DriveStatus{models.DriveStatusUpcoming})
}

// AllDrives is the admin listing
func (s *DriveService) AllDrives(ctx context.Context) ([]models.Drive, error) {
	return s.store.ListDrivesByStatus(ctx, models.DriveStatuses)
}

func (s *DriveService) Get(ctx context.Context, driveID string) (*models.Drive, error) {
	drive, err := s.store.GetDrive(ctx, driveID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Drive not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get drive: %w", err)
	}
	return drive, nil
}

// Delete removes a drive with its stops and subscriptions (admin only). A
// driver left Busy by an In Progress drive is made Available again.
func (s *DriveService) Delete(ctx context.Context, driveID string) error {
	drive, err := s.Get(ctx, driveID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDrive(ctx, driveID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("Drive not found.")
		}
		return fmt.Errorf("delete drive: %w", err)
	}
	if drive.Status == models.DriveStatusInProgress {
		if err := s.store.UpdateDriverStatus(ctx, drive.DriverID, models.DriverStatusAvailable); err != nil {
			log.Printf("⚠️  Failed to free driver %s after deleting drive %s: %v", drive.DriverID, drive.ID, err)
		}
	}
	log.Printf("🗑️  Drive %s deleted", drive.ID)
	s.publish(ctx, events.DriveDeleted, drive, nil)
	return nil
}

// RequestedStops lists the stops on one of the driver's drives
func (s *DriveService) RequestedStops(ctx context.Context, driverID, driveID string) ([]models.Stop, error) {
	drive, err := s.ownedDrive(ctx, driverID, driveID)
	if err != nil {
		return nil, err
	}
	return s.store.ListStopsByDrive(ctx, drive.ID)
}
