package services

import (
	"context"
	"errors"
	"fmt"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// SubscriptionService tracks which drives a resident follows for menu, ETA and
// cancellation updates
type SubscriptionService struct {
	store Store
}

func NewSubscriptionService(store Store) *SubscriptionService {
	return &SubscriptionService{store: store}
}

func (s *SubscriptionService) residentAndDrive(ctx context.Context, residentID, driveID string) (*models.Resident, *models.Drive, error) {
	resident, err := s.store.GetResident(ctx, residentID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, NotFound("Resident not found.")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get resident: %w", err)
	}
	drive, err := s.store.GetDrive(ctx, driveID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, NotFound("Drive not found.")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get drive: %w", err)
	}
	if !resident.LivesOn(drive.AreaID, drive.StreetID) {
		return nil, nil, Forbidden("Cannot subscribe to drives outside your area and street.")
	}
	return resident, drive, nil
}

// Subscribe is idempotent
func (s *SubscriptionService) Subscribe(ctx context.Context, residentID, driveID string) error {
	if _, _, err := s.residentAndDrive(ctx, residentID, driveID); err != nil {
		return err
	}
	if err := s.store.Subscribe(ctx, residentID, driveID); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Unsubscribe is idempotent and succeeds for drives the resident never followed
func (s *SubscriptionService) Unsubscribe(ctx context.Context, residentID, driveID string) error {
	if err := s.requireResident(ctx, residentID); err != nil {
		return err
	}
	if err := s.store.Unsubscribe(ctx, residentID, driveID); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (s *SubscriptionService) requireResident(ctx context.Context, residentID string) error {
	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("Resident not found.")
		}
		return fmt.Errorf("get resident: %w", err)
	}
	return nil
}

// List returns the drives the resident follows, in subscription order
func (s *SubscriptionService) List(ctx context.Context, residentID string) ([]models.Drive, error) {
	if err := s.requireResident(ctx, residentID); err != nil {
		return nil, err
	}
	ids, err := s.store.SubscribedDrives(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	drives := make([]models.Drive, 0, len(ids))
	for _, id := range ids {
		drive, err := s.store.GetDrive(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get drive: %w", err)
		}
		drives = append(drives, *drive)
	}
	return drives, nil
}
