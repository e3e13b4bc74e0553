package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

// GetResidentProfile returns the caller's profile with inbox and subscriptions
func GetResidentProfile(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		resident, err := accounts.ResidentProfile(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "resident": resident})
	}
}

// GetInbox lists notifications. Query: unread=true, type, limit, offset.
func GetInbox(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		limit, ok1 := queryInt(r, "limit", 0)
		offset, ok2 := queryInt(r, "offset", 0)
		if !ok1 || !ok2 {
			utils.RespondError(w, http.StatusBadRequest, "limit and offset must be integers")
			return
		}
		unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
		filter := models.NotificationFilter{
			UnreadOnly: unread,
			Type:       models.NotificationType(r.URL.Query().Get("type")),
			Limit:      limit,
			Offset:     offset,
		}

		inbox, err := mailbox.Inbox(r.Context(), claims.UserID, filter)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if inbox == nil {
			inbox = []models.Notification{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "inbox": inbox})
	}
}

// MarkNotificationRead marks the notification at the 0-based {index} read
func MarkNotificationRead(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid notification index.")
			return
		}
		if err := mailbox.MarkRead(r.Context(), claims.UserID, index); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Notification marked as read")
	}
}

func MarkAllNotificationsRead(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := mailbox.MarkAllRead(r.Context(), claims.UserID); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "All notifications marked as read")
	}
}

func ClearInbox(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := mailbox.Clear(r.Context(), claims.UserID); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Inbox cleared")
	}
}

func GetInboxStats(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		stats, err := mailbox.Stats(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, stats)
	}
}

// UpdatePreferences replaces the set of notification types the resident wants
func UpdatePreferences(mailbox *services.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Preferences []string `json:"notification_preferences"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		prefs, err := mailbox.UpdatePreferences(r.Context(), claims.UserID, req.Preferences)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "notification_preferences": prefs})
	}
}

// RequestStop asks the van to stop for the caller on drive {id}
func RequestStop(stops *services.StopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		stop, err := stops.RequestStop(r.Context(), claims.UserID, idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		log.Printf("🛑 Stop requested on drive %s by %s", stop.DriveID, claims.Username)
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "stop": stop})
	}
}

func CancelStop(stops *services.StopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := stops.CancelStop(r.Context(), claims.UserID, idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Stop cancelled")
	}
}

// GetMyStops lists every stop the caller has requested
func GetMyStops(stops *services.StopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		list, err := stops.ByResident(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if list == nil {
			list = []models.Stop{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stops": list})
	}
}

func Subscribe(subs *services.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := subs.Subscribe(r.Context(), claims.UserID, idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Subscribed to drive")
	}
}

func Unsubscribe(subs *services.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := subs.Unsubscribe(r.Context(), claims.UserID, idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Unsubscribed from drive")
	}
}

func GetSubscriptions(subs *services.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		drives, err := subs.List(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, drives)
	}
}

// UpdateResidentLocation stores the caller's home coordinates
func UpdateResidentLocation(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		resident, err := accounts.UpdateResidentLocation(r.Context(), claims.UserID, req.Lat, req.Lng)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "resident": resident})
	}
}

// GetDriverStats shows residents a driver's status, drive counts and position
func GetDriverStats(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := accounts.DriverStats(r.Context(), idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, stats)
	}
}
