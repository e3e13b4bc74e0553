package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"breadvan-backend/internal/middleware"
	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/internal/websocket"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Accounts      *services.AccountService
	Catalog       *services.CatalogService
	Drives        *services.DriveService
	Stops         *services.StopService
	Subscriptions *services.SubscriptionService
	Mailbox       *services.Mailbox
	Tracker       *services.LocationTracker

	// Store is pinged by the health check; nil skips the check
	Store interface {
		Ping(ctx context.Context) error
	}
}

// NewRouter wires every route onto a chi router
func NewRouter(svc Services, auth *middleware.Authenticator, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if svc.Store != nil {
			if err := svc.Store.Ping(r.Context()); err != nil {
				log.Printf("❌ Health check failed: %v", err)
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(hub, auth, svc.Tracker))

	r.Route("/api", func(r chi.Router) {
		// Authentication routes (no auth required)
		r.Post("/auth/login", Login(svc.Accounts, auth))
		r.Post("/auth/register", RegisterResident(svc.Accounts, auth))

		// Public browsing
		r.Get("/areas", GetAreas(svc.Catalog))
		r.Get("/streets", GetStreets(svc.Catalog))
		r.Get("/streets/{id}/drives", GetStreetDrives(svc.Drives))
		r.Get("/items", GetItems(svc.Catalog))
		r.Get("/items/{id}", GetItem(svc.Catalog))
		r.Get("/drives/upcoming", GetUpcomingDrives(svc.Drives))
		r.Get("/drives/{id}", GetDrive(svc.Drives))
		r.Get("/van-location", GetVanLocation(svc.Tracker))

		r.Group(func(r chi.Router) {
			r.Use(auth.Auth)
			r.Get("/auth/status", GetAuthStatus())
		})

		// Driver endpoints
		r.Route("/driver", func(r chi.Router) {
			r.Use(auth.Auth)
			r.Use(middleware.RequireRole(models.RoleDriver))

			r.Get("/me", GetDriverProfile(svc.Accounts))
			r.Patch("/status", SetDriverStatus(svc.Accounts))
			r.Post("/fcm-token", RegisterFCMToken(svc.Accounts))

			r.Get("/drives", GetActiveDrives(svc.Drives))
			r.Get("/drives/history", GetDriveHistory(svc.Drives))
			r.Post("/drives", ScheduleDrive(svc.Drives))
			r.Post("/drives/end", EndDrive(svc.Drives))
			r.Post("/drives/{id}/start", StartDrive(svc.Drives))
			r.Post("/drives/{id}/cancel", CancelDrive(svc.Drives))
			r.Patch("/drives/{id}/menu", UpdateMenu(svc.Drives))
			r.Patch("/drives/{id}/eta", UpdateETA(svc.Drives))
			r.Get("/drives/{id}/stops", GetRequestedStops(svc.Drives))

			// Location tracking (sent every few seconds while driving)
			r.Post("/location", UpdateLocation(svc.Tracker))

			r.Get("/stock", GetStock(svc.Catalog))
			r.Put("/stock", UpdateStock(svc.Catalog))
		})

		// Resident endpoints
		r.Route("/resident", func(r chi.Router) {
			r.Use(auth.Auth)
			r.Use(middleware.RequireRole(models.RoleResident))

			r.Get("/me", GetResidentProfile(svc.Accounts))
			r.Patch("/location", UpdateResidentLocation(svc.Accounts))
			r.Post("/fcm-token", RegisterFCMToken(svc.Accounts))

			r.Get("/inbox", GetInbox(svc.Mailbox))
			r.Delete("/inbox", ClearInbox(svc.Mailbox))
			r.Get("/inbox/stats", GetInboxStats(svc.Mailbox))
			r.Post("/inbox/read-all", MarkAllNotificationsRead(svc.Mailbox))
			r.Post("/inbox/{index}/read", MarkNotificationRead(svc.Mailbox))
			r.Put("/preferences", UpdatePreferences(svc.Mailbox))

			r.Get("/stops", GetMyStops(svc.Stops))
			r.Post("/drives/{id}/stop", RequestStop(svc.Stops))
			r.Delete("/drives/{id}/stop", CancelStop(svc.Stops))

			r.Get("/subscriptions", GetSubscriptions(svc.Subscriptions))
			r.Post("/drives/{id}/subscribe", Subscribe(svc.Subscriptions))
			r.Delete("/drives/{id}/subscribe", Unsubscribe(svc.Subscriptions))

			r.Get("/drivers/{id}/stats", GetDriverStats(svc.Accounts))
			r.Get("/drivers/{id}/stock", GetStock(svc.Catalog))
			r.Get("/drivers/{id}/location", GetDriverLocation(svc.Tracker))
		})

		// Admin endpoints (require authentication + admin role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Auth)
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Get("/drivers", GetDrivers(svc.Accounts))
			r.Post("/drivers", CreateDriver(svc.Accounts))
			r.Delete("/drivers/{id}", DeleteDriver(svc.Accounts))
			r.Get("/residents", GetResidents(svc.Accounts))
			r.Post("/admins", CreateAdmin(svc.Accounts))

			r.Post("/areas", CreateArea(svc.Catalog))
			r.Delete("/areas/{id}", DeleteArea(svc.Catalog))
			r.Post("/streets", CreateStreet(svc.Catalog))
			r.Delete("/streets/{id}", DeleteStreet(svc.Catalog))

			r.Post("/items", CreateItem(svc.Catalog))
			r.Patch("/items/{id}", UpdateItem(svc.Catalog))
			r.Delete("/items/{id}", DeleteItem(svc.Catalog))

			r.Get("/drives", GetAllDrives(svc.Drives))
			r.Delete("/drives/{id}", DeleteDrive(svc.Drives))
		})
	})

	return r
}
