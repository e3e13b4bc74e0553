package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/events"
	"breadvan-backend/internal/models"
)

// StopService is the registry of residents' pickup requests
type StopService struct {
	store     Store
	mailbox   *Mailbox
	publisher events.Publisher
}

func NewStopService(store Store, mailbox *Mailbox, publisher events.Publisher) *StopService {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &StopService{store: store, mailbox: mailbox, publisher: publisher}
}

func (s *StopService) requireResident(ctx context.Context, residentID string) (*models.Resident, error) {
	resident, err := s.store.GetResident(ctx, residentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Resident not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get resident: %w", err)
	}
	return resident, nil
}

func (s *StopService) publish(ctx context.Context, eventType string, drive *models.Drive, residentID string) {
	e := events.New(eventType)
	e.DriveID = drive.ID
	e.DriverID = drive.DriverID
	e.ResidentID = residentID
	e.AreaID = drive.AreaID
	e.StreetID = drive.StreetID
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("⚠️  Failed to publish %s for drive %s: %v", eventType, drive.ID, err)
	}
}

// RequestStop books a pickup on an Upcoming drive on the resident's street and
// confirms it in the resident's inbox
func (s *StopService) RequestStop(ctx context.Context, residentID, driveID string) (*models.Stop, error) {
	resident, err := s.requireResident(ctx, residentID)
	if err != nil {
		return nil, err
	}

	drive, err := s.store.GetDrive(ctx, driveID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("Drive not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("get drive: %w", err)
	}
	if drive.Status != models.DriveStatusUpcoming {
		return nil, Conflict("Cannot request stops for drives that have started or ended.")
	}
	if !resident.LivesOn(drive.AreaID, drive.StreetID) {
		return nil, Forbidden("Invalid drive choice: Not your area/street.")
	}

	duplicate := Validation("You have already requested a stop for drive %s.", drive.ID)
	if _, err := s.store.GetStop(ctx, drive.ID, resident.ID); err == nil {
		return nil, duplicate
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("get stop: %w", err)
	}

	stop := &models.Stop{
		ID:         uuid.New().String(),
		DriveID:    drive.ID,
		ResidentID: resident.ID,
	}
	if err := s.store.CreateStop(ctx, stop); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, duplicate
		}
		return nil, fmt.Errorf("create stop: %w", err)
	}

	msg := fmt.Sprintf("Your stop request for Drive %s was submitted.", drive.ID)
	if _, err := s.mailbox.Receive(ctx, resident.ID, msg, models.NotificationStopRequested, &drive.ID); err != nil {
		log.Printf("❌ Failed to confirm stop %s to resident %s: %v", stop.ID, resident.ID, err)
	}

	log.Printf("✅ Stop %s requested by %s on drive %s", stop.ID, resident.ID, drive.ID)
	s.publish(ctx, events.StopRequested, drive, resident.ID)
	return stop, nil
}

// CancelStop withdraws the resident's stop on driveID
func (s *StopService) CancelStop(ctx context.Context, residentID, driveID string) error {
	if _, err := s.requireResident(ctx, residentID); err != nil {
		return err
	}
	err := s.store.DeleteStop(ctx, driveID, residentID)
	if errors.Is(err, database.ErrNotFound) {
		return NotFound("No stop requested for this drive.")
	}
	if err != nil {
		return fmt.Errorf("delete stop: %w", err)
	}

	log.Printf("✅ Stop on drive %s cancelled by %s", driveID, residentID)
	if drive, err := s.store.GetDrive(ctx, driveID); err == nil {
		s.publish(ctx, events.StopCancelled, drive, residentID)
	}
	return nil
}

func (s *StopService) ByDrive(ctx context.Context, driveID string) ([]models.Stop, error) {
	return s.store.ListStopsByDrive(ctx, driveID)
}

func (s *StopService) ByResident(ctx context.Context, residentID string) ([]models.Stop, error) {
	return s.store.ListStopsByResident(ctx, residentID)
}

// ForPair returns the stop for (drive, resident), or nil when there is none
func (s *StopService) ForPair(ctx context.Context, driveID, residentID string) (*models.Stop, error) {
	stop, err := s.store.GetStop(ctx, driveID, residentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stop: %w", err)
	}
	return stop, nil
}
