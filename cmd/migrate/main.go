package main

import (
	"context"
	"flag"
	"log"

	"breadvan-backend/internal/config"
	"breadvan-backend/internal/database"
)

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	seed := flag.Bool("seed", false, "load the demo areas, streets, accounts and items")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.InMemory() {
		log.Fatal("DATABASE_URL points at the in-memory store; nothing to migrate")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("✅ Migration completed successfully!")

	ctx := context.Background()
	store := database.NewStore(db)
	if cfg.AdminUsername != "" {
		if err := database.SeedAdmin(ctx, store, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("Admin seeding failed: %v", err)
		}
	}
	if *seed {
		if err := database.SeedDemoData(ctx, store); err != nil {
			log.Fatalf("Demo data seeding failed: %v", err)
		}
		log.Println("✅ Demo data loaded")
	}

	// Summary
	var counts struct {
		Areas     int `db:"areas"`
		Streets   int `db:"streets"`
		Drivers   int `db:"drivers"`
		Residents int `db:"residents"`
		Items     int `db:"items"`
	}
	err = db.Get(&counts, `
		SELECT (SELECT COUNT(*) FROM areas)     AS areas,
		       (SELECT COUNT(*) FROM streets)   AS streets,
		       (SELECT COUNT(*) FROM drivers)   AS drivers,
		       (SELECT COUNT(*) FROM residents) AS residents,
		       (SELECT COUNT(*) FROM items)     AS items
	`)
	if err != nil {
		log.Printf("⚠️  Failed to query summary: %v", err)
		return
	}
	log.Println("\n📊 Summary:")
	log.Printf("   Areas: %d", counts.Areas)
	log.Printf("   Streets: %d", counts.Streets)
	log.Printf("   Drivers: %d", counts.Drivers)
	log.Printf("   Residents: %d", counts.Residents)
	log.Printf("   Items: %d", counts.Items)
}
