package services

import (
	"context"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

// The store interfaces below are satisfied by *database.Store (Postgres) and
// by memstore.Store. Lookups return database.ErrNotFound for a missing key and
// writes return database.ErrDuplicate when a unique index rejects them.

type AreaStore interface {
	CreateArea(ctx context.Context, area *models.Area) error
	GetArea(ctx context.Context, id string) (*models.Area, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
	DeleteArea(ctx context.Context, id string) error
}

type StreetStore interface {
	CreateStreet(ctx context.Context, street *models.Street) error
	GetStreet(ctx context.Context, id string) (*models.Street, error)
	ListStreets(ctx context.Context, areaID string) ([]models.Street, error)
	DeleteStreet(ctx context.Context, id string) error
}

type ItemStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	SearchItems(ctx context.Context, query string) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error
}

type StockStore interface {
	UpsertStock(ctx context.Context, stock *models.DriverStock) error
	ListStock(ctx context.Context, driverID string) ([]models.DriverStock, error)
}

type UserStore interface {
	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type DriverStore interface {
	CreateDriver(ctx context.Context, user *models.User, driver *models.Driver) error
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	UpdateDriverStatus(ctx context.Context, id string, status models.DriverStatus) error
}

type ResidentStore interface {
	CreateResident(ctx context.Context, user *models.User, resident *models.Resident) error
	GetResident(ctx context.Context, id string) (*models.Resident, error)
	ListResidents(ctx context.Context) ([]models.Resident, error)
	ResidentsOnStreet(ctx context.Context, areaID, streetID string) ([]models.Resident, error)
	ResidentsInArea(ctx context.Context, areaID string) ([]models.Resident, error)
	UpdateResidentLocation(ctx context.Context, id string, lat, lng float64) error
	UpdatePreferences(ctx context.Context, id string, prefs []string) error
}

type DriveStore interface {
	CreateDrive(ctx context.Context, drive *models.Drive) error
	GetDrive(ctx context.Context, id string) (*models.Drive, error)
	FindDriveFor(ctx context.Context, areaID, streetID, date string) (*models.Drive, error)
	FindActiveDrive(ctx context.Context, driverID string) (*models.Drive, error)
	ListDrivesByDriver(ctx context.Context, driverID string, statuses []models.DriveStatus) ([]models.Drive, error)
	ListDrivesByStreet(ctx context.Context, streetID, date string) ([]models.Drive, error)
	ListDrivesByStatus(ctx context.Context, statuses []models.DriveStatus) ([]models.Drive, error)
	TransitionDrive(ctx context.Context, id string, from []models.DriveStatus, to models.DriveStatus) (bool, error)
	UpdateDriveDetails(ctx context.Context, id string, menu, eta *string) error
	DeleteDrive(ctx context.Context, id string) error
}

type StopStore interface {
	CreateStop(ctx context.Context, stop *models.Stop) error
	GetStop(ctx context.Context, driveID, residentID string) (*models.Stop, error)
	DeleteStop(ctx context.Context, driveID, residentID string) error
	ListStopsByDrive(ctx context.Context, driveID string) ([]models.Stop, error)
	ListStopsByResident(ctx context.Context, residentID string) ([]models.Stop, error)
}

type NotificationStore interface {
	AppendNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, residentID string, filter models.NotificationFilter) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, residentID string, index int) error
	MarkAllNotificationsRead(ctx context.Context, residentID string) error
	ClearNotifications(ctx context.Context, residentID string) error
	CountNotifications(ctx context.Context, residentID string) (total, unread int, err error)
}

type SubscriptionStore interface {
	Subscribe(ctx context.Context, residentID, driveID string) error
	Unsubscribe(ctx context.Context, residentID, driveID string) error
	SubscribedDrives(ctx context.Context, residentID string) ([]string, error)
	Subscribers(ctx context.Context, driveID string) ([]string, error)
}

type LocationStore interface {
	UpsertDriverLocation(ctx context.Context, loc *models.DriverLocation) error
	GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error)
	LatestDriverLocation(ctx context.Context) (*models.DriverLocation, error)
	MarkDriverDisconnected(ctx context.Context, driverID string) error
}

type TokenStore interface {
	UpsertFCMToken(ctx context.Context, userID, token, deviceType string) error
	FCMTokens(ctx context.Context, userID string) ([]string, error)
	DeleteFCMToken(ctx context.Context, token string) error
}

// Store is everything the services need from persistence
type Store interface {
	AreaStore
	StreetStore
	ItemStore
	StockStore
	UserStore
	DriverStore
	ResidentStore
	DriveStore
	StopStore
	NotificationStore
	SubscriptionStore
	LocationStore
	TokenStore
	Ping(ctx context.Context) error
}

var _ Store = (*database.Store)(nil)
