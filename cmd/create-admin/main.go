package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/services"
)

func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Get database connection string from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("🔌 Connected to database")

	accounts := services.NewAccountService(database.NewStore(db), nil)
	user, err := accounts.CreateAdmin(context.Background(), *username, *password)
	if services.IsKind(err, services.KindValidation) {
		log.Printf("⚠️  %v", err)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ Failed to create admin %s: %v", *username, err)
	}
	log.Printf("✅ Created admin: %s (%s)", user.Username, user.ID)
}
