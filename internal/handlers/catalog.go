package handlers

import (
	"net/http"

	"breadvan-backend/internal/models"
	"breadvan-backend/internal/services"
	"breadvan-backend/pkg/utils"
)

type nameRequest struct {
	Name string `json:"name"`
}

// GetAreas lists every area
func GetAreas(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		areas, err := catalog.ListAreas(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if areas == nil {
			areas = []models.Area{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "areas": areas})
	}
}

func CreateArea(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if !decodeBody(w, r, &req) {
			return
		}
		area, err := catalog.CreateArea(r.Context(), req.Name)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "area": area})
	}
}

func DeleteArea(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := catalog.DeleteArea(r.Context(), idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Area deleted")
	}
}

// GetStreets lists streets, narrowed to one area by ?area_id=
func GetStreets(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streets, err := catalog.ListStreets(r.Context(), r.URL.Query().Get("area_id"))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if streets == nil {
			streets = []models.Street{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "streets": streets})
	}
}

func CreateStreet(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name   string `json:"name"`
			AreaID string `json:"areaId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		street, err := catalog.CreateStreet(r.Context(), req.AreaID, req.Name)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "street": street})
	}
}

func DeleteStreet(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := catalog.DeleteStreet(r.Context(), idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Street deleted")
	}
}

// GetItems lists the menu catalog; ?q= searches names and tags
func GetItems(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := catalog.ListItems(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if items == nil {
			items = []models.Item{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "items": items})
	}
}

func GetItem(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := catalog.GetItem(r.Context(), idParam(r))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": item})
	}
}

func CreateItem(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.ItemInput
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := catalog.CreateItem(r.Context(), req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "item": item})
	}
}

// UpdateItem applies a partial update; omitted fields keep their value
func UpdateItem(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ItemUpdate
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := catalog.UpdateItem(r.Context(), idParam(r), req)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "item": item})
	}
}

func DeleteItem(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := catalog.DeleteItem(r.Context(), idParam(r)); err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Item deleted")
	}
}

// UpdateStock sets the calling driver's quantity for an item
func UpdateStock(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req struct {
			ItemID   string `json:"itemId"`
			Quantity int    `json:"quantity"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		stock, err := catalog.UpdateStock(r.Context(), claims.UserID, req.ItemID, req.Quantity)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stock": stock})
	}
}

// GetStock returns a driver's stock. Drivers read their own; residents pass
// the driver ID in the path.
func GetStock(catalog *services.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := currentUser(w, r)
		if !ok {
			return
		}
		driverID := idParam(r)
		if driverID == "" {
			driverID = claims.UserID
		}
		stock, err := catalog.DriverStock(r.Context(), driverID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if stock == nil {
			stock = []models.DriverStock{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stock": stock})
	}
}
