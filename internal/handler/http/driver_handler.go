package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/driver"
	"github.com/vasiliy-maslov/food-delivery/internal/order"
)

const driverLocationMaxAge = 7 * 24 * time.Hour

type DriverRequest struct {
	Name    string `json:"name" label:"Name" validate:"required,notblank,between=2:30"`
	Phone   string `json:"phone" label:"Phone number" validate:"required,notblank,between=10:15"`
	Vehicle string `json:"vehicle" label:"Vehicle" validate:"required,notblank,between=2:20"`
}

type LocationRequest struct {
	Location string `json:"location" label:"Location" validate:"required,notblank,between=2:30"`
}

type DriverOrders interface {
	FindByDriverID(ctx context.Context, driverID int) ([]order.Order, error)
}

type DriverHandler struct {
	service  driver.Service
	orders   DriverOrders
	validate *validator.Validate
}

func NewDriverHandler(service driver.Service, orders DriverOrders) *DriverHandler {
	return &DriverHandler{
		service:  service,
		orders:   orders,
		validate: newValidator(),
	}
}

func (h *DriverHandler) RegisterRoutes(router chi.Router) {
	router.Get("/drivers", h.handleListDrivers)
	router.Post("/drivers", h.handleCreateDriver)
	router.Get("/drivers/{id}", h.handleGetDriver)
	router.Delete("/drivers/{id}", h.handleDeleteDriver)
	router.Put("/drivers/{id}/location", h.handleUpdateLocation)
	router.Get("/drivers/{id}/orders", h.handleGetDriverOrders)
}

func (h *DriverHandler) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.service.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list delivery drivers")
		return
	}
	respondWithJSON(w, http.StatusOK, drivers)
}

func (h *DriverHandler) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	var requestPayload DriverRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Create(r.Context(), &driver.DeliveryDriver{
		Name:    requestPayload.Name,
		Phone:   requestPayload.Phone,
		Vehicle: requestPayload.Vehicle,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create delivery driver")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *DriverHandler) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get delivery driver by id")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *DriverHandler) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete delivery driver")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateLocation stores the location in a cookie. The expiry is set only
// when the cookie is first created.
func (h *DriverHandler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload LocationRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get delivery driver by id")
		return
	}

	cookie := &http.Cookie{
		Name:     locationCookieName(id),
		Value:    requestPayload.Location,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if _, err := r.Cookie(cookie.Name); err != nil {
		cookie.MaxAge = int(driverLocationMaxAge.Seconds())
	}
	http.SetCookie(w, cookie)

	log.Info().Int("driver_id", id).Str("location", requestPayload.Location).Msg("Delivery driver location updated")
	respondWithJSON(w, http.StatusOK, found)
}

func (h *DriverHandler) handleGetDriverOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.service.FindByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to get delivery driver by id")
		return
	}

	orders, err := h.orders.FindByDriverID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get delivery driver orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func locationCookieName(driverID int) string {
	return "deliveryDriverId" + strconv.Itoa(driverID) + "Location"
}
