package handlers

import (
	"net/http"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

// UpdateLocation records the calling driver's GPS fix. The tracker stores it,
// broadcasts it and raises arrival alerts.
func UpdateLocation(tracker *services.LocationTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req models.LocationUpdate
		if !decodeBody(w, r, &req) {
			return
		}
		result, err := tracker.UpdateLocation(r.Context(), claims.UserID, req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": result})
	}
}

// GetVanLocation returns the most recent position of any van
func GetVanLocation(tracker *services.LocationTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := tracker.LatestVanLocation(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "location": loc})
	}
}

// GetDriverLocation returns one driver's last known position
func GetDriverLocation(tracker *services.LocationTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := tracker.DriverLocation(r.Context(), idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "location": loc})
	}
}
