package handlers

import (
	"log"
	"net/http"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

type CreateAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateDriver creates a driver account
// Requires admin authentication
func CreateDriver(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("📥 REQUEST: POST /api/admin/drivers - Create new driver")

		var req services.NewDriverRequest
		if !decodeBody(w, r, &req) {
			return
		}
		log.Printf("   👤 Username: %s", req.Username)
		log.Printf("   📍 Area: %s", req.AreaID)

		driver, err := accounts.CreateDriver(r.Context(), req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		log.Printf("✅ Driver created: %s", driver.ID)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "driver": driver})
	}
}

func DeleteDriver(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := accounts.DeleteDriver(r.Context(), idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Driver deleted")
	}
}

func GetDrivers(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drivers, err := accounts.ListDrivers(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if drivers == nil {
			drivers = []models.Driver{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "drivers": drivers})
	}
}

func GetResidents(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		residents, err := accounts.ListResidents(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if residents == nil {
			residents = []models.Resident{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "residents": residents})
	}
}

// CreateAdmin adds another admin account
func CreateAdmin(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAdminRequest
		if !decodeBody(w, r, &req) {
			return
		}
		user, err := accounts.CreateAdmin(r.Context(), req.Username, req.Password)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		log.Printf("✅ Admin created: %s", user.Username)
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "user": user.ToUserResponse()})
	}
}

// GetDriverProfile returns the calling driver's account
func GetDriverProfile(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		driver, err := accounts.GetDriver(r.Context(), claims.UserID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "driver": driver})
	}
}

// SetDriverStatus lets a driver go Offline or Available
func SetDriverStatus(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Status models.DriverStatus `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		driver, err := accounts.SetDriverStatus(r.Context(), claims.UserID, req.Status)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "driver": driver})
	}
}

// RegisterFCMToken registers a Firebase Cloud Messaging token
func RegisterFCMToken(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Token      string `json:"token"`
			DeviceType string `json:"device_type"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := accounts.RegisterFCMToken(r.Context(), claims.UserID, req.Token, req.DeviceType); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "FCM token registered")
	}
}
