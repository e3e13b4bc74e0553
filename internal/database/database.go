package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Printf("   📍 URL prefix: %s...", dbURL[:min(30, len(dbURL))])
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT sqlx.Connect()")
		log.Printf("   Error type: %T", err)
		log.Printf("   Error message: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT Ping()")
		log.Printf("   Error message: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

// Migrate applies the schema. Every statement is idempotent so it runs on
// every boot.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('driver', 'resident', 'admin')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS areas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS streets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			area_id TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (area_id) REFERENCES areas(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS drivers (
			user_id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'Offline' CHECK(status IN ('Offline', 'Available', 'Busy')),
			area_id TEXT NOT NULL,
			street_id TEXT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (area_id) REFERENCES areas(id),
			FOREIGN KEY (street_id) REFERENCES streets(id) ON DELETE SET NULL
		)`,

		`CREATE TABLE IF NOT EXISTS residents (
			user_id TEXT PRIMARY KEY,
			area_id TEXT NOT NULL,
			street_id TEXT NOT NULL,
			house_number INT NOT NULL,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			notification_preferences TEXT[] NOT NULL
				DEFAULT ARRAY['drive_scheduled', 'menu_updated', 'eta_updated', 'arrival_alert'],
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (area_id) REFERENCES areas(id),
			FOREIGN KEY (street_id) REFERENCES streets(id)
		)`,

		`CREATE TABLE IF NOT EXISTS drives (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			area_id TEXT NOT NULL,
			street_id TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('Upcoming', 'In Progress', 'Completed', 'Cancelled')),
			menu TEXT,
			eta TEXT,
			scheduled_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (area_id) REFERENCES areas(id),
			FOREIGN KEY (street_id) REFERENCES streets(id)
		)`,

		`CREATE TABLE IF NOT EXISTS stops (
			id TEXT PRIMARY KEY,
			drive_id TEXT NOT NULL,
			resident_id TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (drive_id) REFERENCES drives(id) ON DELETE CASCADE,
			FOREIGN KEY (resident_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS drive_subscriptions (
			resident_id TEXT NOT NULL,
			drive_id TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (resident_id, drive_id),
			FOREIGN KEY (resident_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (drive_id) REFERENCES drives(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			resident_id TEXT NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL,
			drive_id TEXT,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (resident_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (drive_id) REFERENCES drives(id) ON DELETE SET NULL
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(10,2) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS driver_stock (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			quantity INT NOT NULL CHECK(quantity >= 0),
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android', 'web')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Exactly 1 row per driver, updated via UPSERT
		`CREATE TABLE IF NOT EXISTS driver_current_location (
			driver_id TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			heading DOUBLE PRECISION,
			speed DOUBLE PRECISION,
			accuracy DOUBLE PRECISION,
			drive_id TEXT,
			timestamp BIGINT NOT NULL,
			is_connected BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (drive_id) REFERENCES drives(id) ON DELETE SET NULL
		)`,

		// Uniqueness invariants live in the schema so concurrent writers
		// cannot both pass the application-level pre-check.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_drives_area_street_date_active
			ON drives(area_id, street_id, date) WHERE status <> 'Cancelled'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_drives_driver_in_progress
			ON drives(driver_id) WHERE status = 'In Progress'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_stops_drive_resident ON stops(drive_id, resident_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_driver_stock_driver_item ON driver_stock(driver_id, item_id)`,

		`CREATE INDEX IF NOT EXISTS idx_streets_area_id ON streets(area_id)`,
		`CREATE INDEX IF NOT EXISTS idx_residents_area_street ON residents(area_id, street_id)`,
		`CREATE INDEX IF NOT EXISTS idx_drives_driver_id ON drives(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_drives_status ON drives(status)`,
		`CREATE INDEX IF NOT EXISTS idx_drives_street_date ON drives(street_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_stops_resident_id ON stops(resident_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_drive_id ON drive_subscriptions(drive_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_resident_seq ON notifications(resident_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
