package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"breadvan-backend/internal/middleware"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

// respondServiceError maps a service error kind to its HTTP status. Anything
// that is not a services.Error is an infrastructure failure.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindValidation:
		status = http.StatusUnprocessableEntity
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		log.Printf("❌ %s %s failed: %v", r.Method, r.URL.Path, err)
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	log.Printf("⚠️  %s %s rejected: %v", r.Method, r.URL.Path, err)
	utils.RespondError(w, status, err.Error())
}

// currentUser returns the claims Auth put on the request. The route groups
// always run Auth first, so a miss is answered with 401.
func currentUser(w http.ResponseWriter, r *http.Request) (middleware.UserClaims, bool) {
	claims, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return claims, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		log.Printf("❌ Invalid request body for %s %s: %v", r.Method, r.URL.Path, err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// queryInt reads an integer query parameter, def when absent
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
