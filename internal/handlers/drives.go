package handlers

import (
	"log"
	"net/http"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

// DriveResponse wraps a single drive
type DriveResponse struct {
	Success bool          `json:"success"`
	Drive   *models.Drive `json:"drive"`
}

// DrivesResponse wraps a drive listing
type DrivesResponse struct {
	Success bool           `json:"success"`
	Drives  []models.Drive `json:"drives"`
}

func respondDrives(w http.ResponseWriter, drives []models.Drive) {
	if drives == nil {
		drives = []models.Drive{}
	}
	utils.RespondJSON(w, http.StatusOK, DrivesResponse{Success: true, Drives: drives})
}

// ScheduleDrive creates an Upcoming drive for the calling driver
func ScheduleDrive(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req services.ScheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}

		log.Printf("📥 REQUEST: schedule drive on %s %s by %s", req.Date, req.Time, claims.Username)
		drive, err := drives.Schedule(r.Context(), claims.UserID, req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, DriveResponse{Success: true, Drive: drive})
	}
}

// driveTransition adapts the driver-owned drive operations that take only the drive ID
func driveTransition(op func(r *http.Request, driverID, driveID string) (*models.Drive, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		drive, err := op(r, claims.UserID, idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, DriveResponse{Success: true, Drive: drive})
	}
}

// StartDrive moves an Upcoming drive In Progress
func StartDrive(drives *services.DriveService) http.HandlerFunc {
	return driveTransition(func(r *http.Request, driverID, driveID string) (*models.Drive, error) {
		return drives.Start(r.Context(), driverID, driveID)
	})
}

// CancelDrive cancels one of the driver's drives
func CancelDrive(drives *services.DriveService) http.HandlerFunc {
	return driveTransition(func(r *http.Request, driverID, driveID string) (*models.Drive, error) {
		return drives.Cancel(r.Context(), driverID, driveID)
	})
}

// EndDrive completes the driver's In Progress drive
func EndDrive(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		drive, err := drives.End(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, DriveResponse{Success: true, Drive: drive})
	}
}

// UpdateMenu replaces the menu text of a drive
func UpdateMenu(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Menu string `json:"menu"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		driveTransition(func(r *http.Request, driverID, driveID string) (*models.Drive, error) {
			return drives.UpdateMenu(r.Context(), driverID, driveID, req.Menu)
		})(w, r)
	}
}

// UpdateETA changes the expected arrival time of a drive
func UpdateETA(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ETA string `json:"eta"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		driveTransition(func(r *http.Request, driverID, driveID string) (*models.Drive, error) {
			return drives.UpdateETA(r.Context(), driverID, driveID, req.ETA)
		})(w, r)
	}
}

// GetActiveDrives lists the driver's Upcoming and In Progress drives
func GetActiveDrives(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		list, err := drives.ActiveDrives(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, list)
	}
}

// GetDriveHistory lists every drive the driver has run or scheduled
func GetDriveHistory(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		list, err := drives.DriverHistory(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, list)
	}
}

// GetRequestedStops lists stops on one of the driver's drives
func GetRequestedStops(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		stops, err := drives.RequestedStops(r.Context(), claims.UserID, idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if stops == nil {
			stops = []models.Stop{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stops": stops})
	}
}

// GetStreetDrives lists drives on a street, optionally filtered by ?date=
func GetStreetDrives(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := drives.DrivesForStreet(r.Context(), idParam(r), r.URL.Query().Get("date"))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, list)
	}
}

// GetUpcomingDrives lists every drive still accepting stops
func GetUpcomingDrives(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := drives.UpcomingDrives(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, list)
	}
}

// GetAllDrives lists every drive in any status
func GetAllDrives(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := drives.AllDrives(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondDrives(w, list)
	}
}

// GetDrive returns one drive by ID
func GetDrive(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drive, err := drives.Get(r.Context(), idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, DriveResponse{Success: true, Drive: drive})
	}
}

// DeleteDrive removes a drive and its stops and subscriptions
func DeleteDrive(drives *services.DriveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := drives.Delete(r.Context(), idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Drive deleted")
	}
}
