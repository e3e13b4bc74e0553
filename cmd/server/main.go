package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"breadvan-backend/internal/cache"
	"breadvan-backend/internal/config"
	"breadvan-backend/internal/database"
	"breadvan-backend/internal/database/memstore"
	"breadvan-backend/internal/events"
	"breadvan-backend/internal/events/kafka"
	"breadvan-backend/internal/events/rabbitmq"
	"breadvan-backend/internal/handlers"
	"breadvan-backend/internal/middleware"
	"breadvan-backend/internal/services"
	"breadvan-backend/internal/subscriber"
	"breadvan-backend/internal/websocket"
)

// appStore is what both the Postgres store and the in-memory store provide
type appStore interface {
	services.Store
	database.Seeder
}

func fatal(what string, err error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("❌ FATAL ERROR: %s", what)
	log.Printf("   Error: %v", err)
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Fatal(err)
}

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	flag.Parse()

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 BREAD VAN BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	log.Println("📂 Loading configuration...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("Invalid configuration", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		fatal("Unknown timezone "+cfg.Timezone, err)
	}
	log.Printf("✅ Configuration loaded (timezone %s)", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(cfg)
	defer closeStore()

	// Seed database
	log.Println("🌱 Seeding database...")
	if cfg.AdminUsername != "" {
		if err := database.SeedAdmin(ctx, store, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			fatal("Admin seeding failed", err)
		}
	}
	if cfg.SeedDemo || cfg.InMemory() {
		if err := database.SeedDemoData(ctx, store); err != nil {
			fatal("Demo data seeding failed", err)
		}
	}

	publisher := openPublisher(ctx, cfg)
	defer publisher.Close()

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()
	log.Println("✅ WebSocket hub started")

	mailbox := services.NewMailbox(store, wsHub)
	if fcm := openFCM(ctx, cfg, store); fcm != nil {
		mailbox.AddNotifier(fcm)
	}

	tracker := services.NewLocationTracker(store, mailbox, publisher)
	tracker.SetBroadcaster(wsHub)
	if cfg.Redis.Addr != "" {
		vanCache, rdb, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Printf("⚠️  Redis unavailable: %v (van location cache disabled)", err)
		} else {
			defer rdb.Close()
			tracker.SetCache(vanCache)
			log.Println("✅ Redis van location cache enabled")
		}
	}

	var geocoder services.Geocoder
	if cfg.Maps.APIKey != "" {
		gs, err := services.NewGeocodingService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			log.Printf("⚠️  Geocoding disabled: %v", err)
		} else {
			geocoder = gs
			log.Println("✅ Address geocoding enabled")
		}
	}

	svc := handlers.Services{
		Accounts:      services.NewAccountService(store, geocoder),
		Catalog:       services.NewCatalogService(store),
		Drives:        services.NewDriveService(store, mailbox, publisher, loc),
		Stops:         services.NewStopService(store, mailbox, publisher),
		Subscriptions: services.NewSubscriptionService(store),
		Mailbox:       mailbox,
		Tracker:       tracker,
		Store:         store,
	}

	if cfg.MQTT.Broker != "" {
		client, err := subscriber.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.Printf("⚠️  MQTT broker unavailable: %v (GPS ingest over MQTT disabled)", err)
		} else {
			sub := subscriber.NewLocationSubscriber(client, tracker)
			if err := sub.Start(); err != nil {
				log.Printf("⚠️  MQTT subscribe failed: %v", err)
			} else {
				defer sub.Stop()
				log.Printf("✅ Listening for driver locations on %s", subscriber.TopicPattern)
			}
		}
	}

	router := handlers.NewRouter(svc, middleware.NewAuthenticator(cfg.JWTSecret), wsHub)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fatal("Server failed to start on port "+cfg.Port, err)
		}
	case <-ctx.Done():
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Graceful shutdown failed: %v", err)
		}
	}
	log.Println("👋 Server stopped")
}

// openStore connects and migrates Postgres, or returns the in-memory store
// for memory:// URLs
func openStore(cfg *config.Config) (appStore, func()) {
	if cfg.InMemory() {
		log.Println("⚠️  DATABASE_URL is memory://, data will not survive a restart")
		return memstore.New(), func() {}
	}

	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Network connectivity issue")
		log.Println("   4. Invalid credentials")
		fatal("Database connection failed", err)
	}
	log.Println("✅ Database connection established")

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		db.Close()
		fatal("Database migrations failed", err)
	}
	log.Println("✅ Database migrations completed")
	return database.NewStore(db), func() { db.Close() }
}

// openPublisher selects the event sink named by EVENT_BROKER. A broker that
// cannot be reached falls back to logging events.
func openPublisher(ctx context.Context, cfg *config.Config) events.Publisher {
	switch cfg.Events.Broker {
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.Dial(cfg.Events.RabbitMQURL)
		if err != nil {
			log.Printf("⚠️  RabbitMQ unavailable: %v (events will only be logged)", err)
			return events.LogPublisher{}
		}
		return p
	case config.BrokerKafka:
		if err := kafka.EnsureTopics(ctx, cfg.Events.KafkaBrokers[0]); err != nil {
			log.Printf("⚠️  Kafka topics not created: %v", err)
		}
		log.Printf("✅ Publishing events to Kafka %v", cfg.Events.KafkaBrokers)
		return kafka.NewPublisher(cfg.Events.KafkaBrokers)
	}
	return events.LogPublisher{}
}

// openFCM initializes Firebase Cloud Messaging. Supports both file path and
// base64-encoded credentials (for cloud deployments).
func openFCM(ctx context.Context, cfg *config.Config, tokens services.TokenStore) *services.FCMService {
	if cfg.Firebase.CredentialsBase64 != "" {
		fcm, err := services.NewFCMServiceFromBase64(ctx, cfg.Firebase.CredentialsBase64, tokens)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			return nil
		}
		log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcm
	}
	if cfg.Firebase.CredentialsFile == "" {
		log.Println("⚠️  No Firebase credentials configured (push notifications disabled)")
		return nil
	}
	fcm, err := services.NewFCMService(ctx, cfg.Firebase.CredentialsFile, tokens)
	if err != nil {
		log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
		return nil
	}
	log.Println("✅ Firebase Cloud Messaging initialized from file")
	return fcm
}
