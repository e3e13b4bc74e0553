package handlers

import (
	"log"
	"net/http"

	"breadvan-backend/internal/middleware"
	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool                 `json:"success"`
	Token   string               `json:"token,omitempty"`
	User    *models.UserResponse `json:"user,omitempty"`
}

func issue(w http.ResponseWriter, r *http.Request, accounts *services.AccountService, auth *middleware.Authenticator, user *models.User, status int) {
	areaID, err := accounts.HomeArea(r.Context(), user)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	token, err := auth.IssueToken(user, areaID)
	if err != nil {
		log.Printf("❌ Failed to create token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}
	resp := user.ToUserResponse()
	utils.RespondJSON(w, status, LoginResponse{Success: true, Token: token, User: &resp})
}

// Login verifies a username and password and returns a signed token
func Login(accounts *services.AccountService, auth *middleware.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Username)
		user, err := accounts.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		log.Printf("✅ Login successful for: %s (%s)", user.Username, user.Role)
		issue(w, r, accounts, auth, user, http.StatusOK)
	}
}

// RegisterResident signs up a resident and logs them in
func RegisterResident(accounts *services.AccountService, auth *middleware.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.NewResidentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resident, err := accounts.CreateResident(r.Context(), req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		user := &models.User{ID: resident.ID, Username: resident.Username, Role: models.RoleResident, CreatedAt: resident.CreatedAt}
		issue(w, r, accounts, auth, user, http.StatusCreated)
	}
}

// GetAuthStatus echoes the caller's identity from the token
func GetAuthStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"user_id":  claims.UserID,
			"username": claims.Username,
			"role":     claims.Role,
			"area_id":  claims.AreaID,
		})
	}
}
