package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// Geocoder resolves a street address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// NewDriverRequest is the admin input for a driver account
type NewDriverRequest struct {
	Username string              `json:"username"`
	Password string              `json:"password"`
	AreaID   string              `json:"areaId"`
	StreetID *string             `json:"streetId"`
	Status   models.DriverStatus `json:"status"`
}

// NewResidentRequest is the sign-up input for a resident account
type NewResidentRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	AreaID      string   `json:"areaId"`
	StreetID    string   `json:"streetId"`
	HouseNumber int      `json:"houseNumber"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// DriverStats is what residents see about a driver
type DriverStats struct {
	Driver      *models.Driver         `json:"driver"`
	ActiveDrive *models.Drive          `json:"active_drive"`
	Upcoming    int                    `json:"upcoming_drives"`
	Completed   int                    `json:"completed_drives"`
	Location    *models.DriverLocation `json:"location,omitempty"`
}

// AccountService manages drivers, residents and admins
type AccountService struct {
	store    Store
	geocoder Geocoder
}

func NewAccountService(store Store, geocoder Geocoder) *AccountService {
	return &AccountService{store: store, geocoder: geocoder}
}

func (s *AccountService) newUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, Validation("Username and password are required.")
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, Validation("Username already taken.")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Password: string(hashed),
		Role:     role,
	}, nil
}

// checkStreet verifies the area exists and, when streetID is set, that the
// street belongs to it
func (s *AccountService) checkStreet(ctx context.Context, areaID, streetID string) (*models.Area, *models.Street, error) {
	area, err := s.store.GetArea(ctx, areaID)
	if err != nil {
		return nil, nil, notFoundAs(err, "Invalid area ID.")
	}
	if streetID == "" {
		return area, nil, nil
	}
	street, err := s.store.GetStreet(ctx, streetID)
	if err != nil {
		return nil, nil, notFoundAs(err, "Invalid street ID.")
	}
	if street.AreaID != areaID {
		return nil, nil, NotFound("Invalid street ID.")
	}
	return area, street, nil
}

func (s *AccountService) CreateDriver(ctx context.Context, req NewDriverRequest) (*models.Driver, error) {
	status := req.Status
	if status == "" {
		status = models.DriverStatusOffline
	}
	if status != models.DriverStatusOffline && status != models.DriverStatusAvailable {
		return nil, Validation("Driver status must be Offline or Available.")
	}
	streetID := ""
	if req.StreetID != nil {
		streetID = *req.StreetID
	}
	if _, _, err := s.checkStreet(ctx, req.AreaID, streetID); err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, req.Username, req.Password, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	driver := &models.Driver{Status: status, AreaID: req.AreaID}
	if streetID != "" {
		driver.StreetID = &streetID
	}
	if err := s.store.CreateDriver(ctx, user, driver); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, Validation("Username already taken.")
		}
		return nil, fmt.Errorf("create driver: %w", err)
	}
	log.Printf("✅ Driver created: %s (%s)", driver.Username, driver.ID)
	return driver, nil
}

func (s *AccountService) DeleteDriver(ctx context.Context, driverID string) error {
	if _, err := s.store.GetDriver(ctx, driverID); err != nil {
		return notFoundAs(err, "Invalid driver ID.")
	}
	if err := s.store.DeleteUser(ctx, driverID); err != nil {
		return notFoundAs(err, "Invalid driver ID.")
	}
	log.Printf("🗑️  Driver deleted: %s", driverID)
	return nil
}

func (s *AccountService) CreateResident(ctx context.Context, req NewResidentRequest) (*models.Resident, error) {
	if req.StreetID == "" {
		return nil, NotFound("Invalid street ID.")
	}
	if req.HouseNumber <= 0 {
		return nil, Validation("House number must be positive.")
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		return nil, Validation("Latitude and longitude must be given together.")
	}
	if req.Lat != nil && !models.ValidCoordinates(*req.Lat, *req.Lng) {
		return nil, Validation("Invalid coordinates.")
	}
	area, street, err := s.checkStreet(ctx, req.AreaID, req.StreetID)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, req.Username, req.Password, models.RoleResident)
	if err != nil {
		return nil, err
	}
	resident := &models.Resident{
		AreaID:      req.AreaID,
		StreetID:    req.StreetID,
		HouseNumber: req.HouseNumber,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Preferences: models.DefaultPreferences(),
	}
	if !resident.HasCoordinates() && s.geocoder != nil {
		address := fmt.Sprintf("%d %s, %s", req.HouseNumber, street.Name, area.Name)
		if coords, err := s.geocoder.Geocode(ctx, address); err != nil {
			log.Printf("⚠️  Could not geocode %q: %v", address, err)
		} else {
			resident.Lat, resident.Lng = &coords.Lat, &coords.Lng
		}
	}

	if err := s.store.CreateResident(ctx, user, resident); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, Validation("Username already taken.")
		}
		return nil, fmt.Errorf("create resident: %w", err)
	}
	log.Printf("✅ Resident created: %s (%s)", resident.Username, resident.ID)
	return resident, nil
}

func (s *AccountService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.newUser(ctx, username, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, Validation("Username already taken.")
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

// Authenticate checks a username/password pair
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, database.ErrNotFound) {
		return nil, Unauthorized("Invalid username or password.")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, Unauthorized("Invalid username or password.")
	}
	return user, nil
}

// HomeArea returns the area a driver or resident belongs to; admins have none
func (s *AccountService) HomeArea(ctx context.Context, user *models.User) (string, error) {
	switch user.Role {
	case models.RoleDriver:
		d, err := s.store.GetDriver(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("get driver: %w", err)
		}
		return d.AreaID, nil
	case models.RoleResident:
		r, err := s.store.GetResident(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("get resident: %w", err)
		}
		return r.AreaID, nil
	}
	return "", nil
}

func (s *AccountService) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	driver, err := s.store.GetDriver(ctx, driverID)
	if err != nil {
		return nil, notFoundAs(err, "Driver not found.")
	}
	return driver, nil
}

func (s *AccountService) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return s.store.ListDrivers(ctx)
}

func (s *AccountService) ListResidents(ctx context.Context) ([]models.Resident, error) {
	return s.store.ListResidents(ctx)
}

// SetDriverStatus lets a driver go Offline or Available. Busy belongs to the
// drive state machine, so a driver on a drive cannot change status.
func (s *AccountService) SetDriverStatus(ctx context.Context, driverID string, status models.DriverStatus) (*models.Driver, error) {
	if status != models.DriverStatusOffline && status != models.DriverStatusAvailable {
		return nil, Validation("Driver status must be Offline or Available.")
	}
	driver, err := s.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Status == models.DriverStatusBusy {
		return nil, Conflict("Cannot change status while a drive is in progress.")
	}
	if err := s.store.UpdateDriverStatus(ctx, driverID, status); err != nil {
		return nil, notFoundAs(err, "Driver not found.")
	}
	driver.Status = status
	return driver, nil
}

// UpdateResidentLocation records the resident's coordinates for arrival alerts
func (s *AccountService) UpdateResidentLocation(ctx context.Context, residentID string, lat, lng float64) (*models.Resident, error) {
	if !models.ValidCoordinates(lat, lng) {
		return nil, Validation("Invalid coordinates.")
	}
	if err := s.store.UpdateResidentLocation(ctx, residentID, lat, lng); err != nil {
		return nil, notFoundAs(err, "Resident not found.")
	}
	return s.ResidentProfile(ctx, residentID)
}

// ResidentProfile returns the resident with inbox and subscriptions filled in
func (s *AccountService) ResidentProfile(ctx context.Context, residentID string) (*models.Resident, error) {
	resident, err := s.store.GetResident(ctx, residentID)
	if err != nil {
		return nil, notFoundAs(err, "Resident not found.")
	}
	if resident.Inbox, err = s.store.ListNotifications(ctx, residentID, models.NotificationFilter{}); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if resident.SubscribedDrives, err = s.store.SubscribedDrives(ctx, residentID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return resident, nil
}

// DriverStats summarizes a driver for residents
func (s *AccountService) DriverStats(ctx context.Context, driverID string) (*DriverStats, error) {
	driver, err := s.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	drives, err := s.store.ListDrivesByDriver(ctx, driverID, models.DriveStatuses)
	if err != nil {
		return nil, fmt.Errorf("list drives: %w", err)
	}
	stats := &DriverStats{Driver: driver}
	for i := range drives {
		switch drives[i].Status {
		case models.DriveStatusUpcoming:
			stats.Upcoming++
		case models.DriveStatusCompleted:
			stats.Completed++
		case models.DriveStatusInProgress:
			stats.ActiveDrive = &drives[i]
		}
	}
	if loc, err := s.store.GetDriverLocation(ctx, driverID); err == nil {
		stats.Location = loc
	}
	return stats, nil
}

// RegisterFCMToken stores a device push token for the user
func (s *AccountService) RegisterFCMToken(ctx context.Context, userID, token, deviceType string) error {
	if strings.TrimSpace(token) == "" {
		return Validation("Token is required.")
	}
	switch deviceType {
	case "ios", "android", "web":
	default:
		return Validation("Device type must be ios, android or web.")
	}
	if err := s.store.UpsertFCMToken(ctx, userID, token, deviceType); err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	log.Printf("✅ FCM token registered for user %s (%s)", userID, deviceType)
	return nil
}
