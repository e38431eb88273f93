package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cryptic/delivery-user-service/internal/domain"
)

// ListDrivers returns all drivers, optionally filtered by ?status=
func (h *Handlers) ListDrivers(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		drivers, err := h.driverService.ListByStatus(r.Context(), domain.DriverStatus(status))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, drivers)
		return
	}

	drivers, err := h.driverService.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, drivers)
}

// ListAvailableDrivers returns drivers that are ONLINE with no current order,
// the signal the order service uses to pick a driver.
func (h *Handlers) ListAvailableDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.driverService.ListAvailable(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, drivers)
}

func (h *Handlers) GetDriver(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id", CodeInvalidInput)
		return
	}

	driver, err := h.driverService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

func (h *Handlers) GetDriverByUserID(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id", CodeInvalidInput)
		return
	}

	driver, err := h.driverService.GetByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

func (h *Handlers) UpdateDriverStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id", CodeInvalidInput)
		return
	}

	var req domain.UpdateDriverStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	driver, err := h.driverService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

func (h *Handlers) AssignOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id", CodeInvalidInput)
		return
	}

	var req domain.AssignOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.driverService.AssignOrder(r.Context(), id, req.OrderID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order assigned"})
}

func (h *Handlers) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id", CodeInvalidInput)
		return
	}

	if err := h.driverService.CompleteOrder(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order completed"})
}

func (h *Handlers) UpdateDriverRating(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id", CodeInvalidInput)
		return
	}

	var req domain.UpdateRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	if err := h.driverService.UpdateRating(r.Context(), id, req.Rating); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "rating updated"})
}
