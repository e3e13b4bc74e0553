package database

import (
	"context"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"breadvan-backend/internal/models"
)

// Seeder is the subset of the store the seed routines write through. Both the
// Postgres Store and the in-memory store satisfy it.
type Seeder interface {
	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user *models.User) error
	CreateArea(ctx context.Context, area *models.Area) error
	CreateStreet(ctx context.Context, street *models.Street) error
	CreateItem(ctx context.Context, item *models.Item) error
	CreateDriver(ctx context.Context, user *models.User, driver *models.Driver) error
	CreateResident(ctx context.Context, user *models.User, resident *models.Resident) error
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, translateError(err)
}

func newAccount(username, password, role string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Password: string(hashed),
		Role:     role,
	}, nil
}

// SeedAdmin creates the admin account when the users table is empty
func SeedAdmin(ctx context.Context, s Seeder, username, password string) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Users already seeded, skipping admin...")
		return nil
	}

	user, err := newAccount(username, password, models.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return err
	}
	log.Printf("  ✓ Created admin: %s", username)
	return nil
}

// SeedDemoData loads the demo areas, streets, drivers, residents and items.
// It is a no-op once any user exists.
func SeedDemoData(ctx context.Context, s Seeder) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Demo data already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo data...")

	areaIDs := map[string]string{}
	streetIDs := map[string]string{}
	areas := []struct {
		name    string
		streets []string
	}{
		{"St. Augustine", []string{"Gordon Street", "Warner Street", "College Road"}},
		{"Tunapuna", []string{"Fairly Street", "Saint John Road"}},
		{"San Juan", nil},
	}
	for _, a := range areas {
		area := &models.Area{ID: uuid.New().String(), Name: a.name}
		if err := s.CreateArea(ctx, area); err != nil {
			return err
		}
		areaIDs[a.name] = area.ID
		for _, name := range a.streets {
			street := &models.Street{ID: uuid.New().String(), Name: name, AreaID: area.ID}
			if err := s.CreateStreet(ctx, street); err != nil {
				return err
			}
			streetIDs[name] = street.ID
		}
	}
	log.Printf("  ✓ Created %d areas and %d streets", len(areaIDs), len(streetIDs))

	gordon := streetIDs["Gordon Street"]
	drivers := []struct {
		username, password string
		status             models.DriverStatus
		area               string
		street             *string
	}{
		{"bob", "bobpass", models.DriverStatusOffline, "St. Augustine", &gordon},
		{"mary", "marypass", models.DriverStatusAvailable, "Tunapuna", nil},
	}
	for _, d := range drivers {
		user, err := newAccount(d.username, d.password, models.RoleDriver)
		if err != nil {
			return err
		}
		driver := &models.Driver{Status: d.status, AreaID: areaIDs[d.area], StreetID: d.street}
		if err := s.CreateDriver(ctx, user, driver); err != nil {
			return err
		}
		log.Printf("  ✓ Created driver: %s", d.username)
	}

	residents := []struct {
		username, password string
		area, street       string
		house              int
	}{
		{"alice", "alicepass", "St. Augustine", "Warner Street", 48},
		{"jane", "janepass", "St. Augustine", "Warner Street", 50},
		{"john", "johnpass", "Tunapuna", "Saint John Road", 13},
		{"sam", "sampass", "St. Augustine", "College Road", 6},
	}
	for _, r := range residents {
		user, err := newAccount(r.username, r.password, models.RoleResident)
		if err != nil {
			return err
		}
		resident := &models.Resident{
			AreaID:      areaIDs[r.area],
			StreetID:    streetIDs[r.street],
			HouseNumber: r.house,
			Preferences: models.DefaultPreferences(),
		}
		if err := s.CreateResident(ctx, user, resident); err != nil {
			return err
		}
		log.Printf("  ✓ Created resident: %s", r.username)
	}

	items := []models.Item{
		{Name: "Hops Bread", Price: 1.50, Description: "Crusty white roll", Tags: "bread,white"},
		{Name: "Coconut Bake", Price: 8.00, Description: "Baked coconut flatbread", Tags: "bread,coconut"},
		{Name: "Currants Roll", Price: 6.00, Description: "Sweet pastry with currants", Tags: "pastry,sweet"},
		{Name: "Whole Wheat Loaf", Price: 14.00, Description: "Sliced whole wheat", Tags: "bread,wheat"},
	}
	for i := range items {
		items[i].ID = uuid.New().String()
		if err := s.CreateItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	log.Printf("  ✓ Created %d items", len(items))

	log.Println("✓ Successfully seeded demo data")
	log.Println("  👤 Drivers:   bob / bobpass, mary / marypass")
	log.Println("  👤 Residents: alice / alicepass, jane / janepass, john / johnpass, sam / sampass")
	return nil
}
