package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

type MenuItemRequest struct {
	ItemID      int     `json:"itemId"`
	Name        string  `json:"name" label:"Name" validate:"required,notblank,between=2:30"`
	Description string  `json:"description" label:"Description" validate:"required,notblank"`
	Price       float64 `json:"price" label:"Price" validate:"required,gt=0,price"`
}

type RestaurantRequest struct {
	Name      string            `json:"name" label:"Name" validate:"required,notblank,between=2:30"`
	Address   string            `json:"address" label:"Address" validate:"required,notblank,between=2:100"`
	Phone     string            `json:"phone" label:"Phone number" validate:"required,notblank,phone=10:11"`
	MenuItems []MenuItemRequest `json:"menuItems" validate:"dive"`
}

// MenuItemPatchRequest leaves zero fields untouched.
type MenuItemPatchRequest struct {
	ItemID      int     `json:"itemId"`
	Name        string  `json:"name" label:"Name" validate:"omitempty,between=2:30"`
	Description string  `json:"description" label:"Description"`
	Price       float64 `json:"price" label:"Price" validate:"omitempty,gt=0,price"`
}

type RestaurantPatchRequest struct {
	Name      string                 `json:"name" label:"Name" validate:"omitempty,between=2:30"`
	Address   string                 `json:"address" label:"Address" validate:"omitempty,between=2:100"`
	Phone     string                 `json:"phone" label:"Phone number" validate:"omitempty,phone=10:11"`
	MenuItems []MenuItemPatchRequest `json:"menuItems" validate:"dive"`
}

type RestaurantHandler struct {
	service  restaurant.Service
	validate *validator.Validate
}

func NewRestaurantHandler(service restaurant.Service) *RestaurantHandler {
	return &RestaurantHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *RestaurantHandler) RegisterRoutes(router chi.Router) {
	router.Get("/restaurants", h.handleListRestaurants)
	router.Post("/restaurants", h.handleCreateRestaurant)
	router.Get("/restaurants/{id}", h.handleGetRestaurant)
	router.Put("/restaurants/{id}", h.handleUpdateRestaurant)
	router.Delete("/restaurants/{id}", h.handleDeleteRestaurant)
	router.Get("/restaurants/{id}/menu", h.handleGetMenu)
	router.Post("/restaurants/{id}/menu", h.handleAddMenuItem)
	router.Put("/restaurants/{id}/menu/{itemId}", h.handleUpdateMenuItem)
	router.Delete("/restaurants/{id}/menu/{itemId}", h.handleDeleteMenuItem)
	router.Get("/restaurants/{id}/reviews", h.handleGetReviews)
	router.Get("/restaurants/{id}/delivery-areas", h.handleGetDeliveryAreas)
}

func (h *RestaurantHandler) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list restaurants")
		return
	}
	respondWithJSON(w, http.StatusOK, restaurants)
}

func (h *RestaurantHandler) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var requestPayload RestaurantRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	domainRestaurant := restaurant.Restaurant{
		Name:      requestPayload.Name,
		Address:   requestPayload.Address,
		Phone:     requestPayload.Phone,
		MenuItems: make([]restaurant.MenuItem, 0, len(requestPayload.MenuItems)),
	}
	for _, item := range requestPayload.MenuItems {
		domainRestaurant.MenuItems = append(domainRestaurant.MenuItems, item.toMenuItem())
	}

	created, err := h.service.Create(r.Context(), &domainRestaurant)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create restaurant")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *RestaurantHandler) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get restaurant by id")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *RestaurantHandler) handleUpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload RestaurantPatchRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	patch := restaurant.Restaurant{
		Name:    requestPayload.Name,
		Address: requestPayload.Address,
		Phone:   requestPayload.Phone,
	}
	for _, item := range requestPayload.MenuItems {
		patch.MenuItems = append(patch.MenuItems, item.toMenuItem())
	}

	updated, err := h.service.Update(r.Context(), id, &patch)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update restaurant")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *RestaurantHandler) handleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete restaurant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestaurantHandler) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.service.MenuItemsByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get restaurant menu")
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *RestaurantHandler) handleAddMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload MenuItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	item := requestPayload.toMenuItem()
	created, err := h.service.SaveMenuItem(r.Context(), id, &item)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add menu item")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *RestaurantHandler) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	var requestPayload MenuItemPatchRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	patch := requestPayload.toMenuItem()
	updated, err := h.service.UpdateMenuItem(r.Context(), id, itemID, &patch)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update menu item")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *RestaurantHandler) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.service.DeleteMenuItem(r.Context(), id, itemID); err != nil {
		respondWithServiceError(w, err, "Failed to delete menu item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestaurantHandler) handleGetReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := h.service.ReviewsByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get restaurant reviews")
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *RestaurantHandler) handleGetDeliveryAreas(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	addresses, err := h.service.DeliveryAddressesServedByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get restaurant delivery areas")
		return
	}
	respondWithJSON(w, http.StatusOK, addresses)
}

func (req MenuItemRequest) toMenuItem() restaurant.MenuItem {
	return restaurant.MenuItem{
		ID:          req.ItemID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
}

func (req MenuItemPatchRequest) toMenuItem() restaurant.MenuItem {
	return restaurant.MenuItem{
		ID:          req.ItemID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
}
