package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/customer"
	"github.com/vasiliy-maslov/food-delivery/internal/favorites"
	"github.com/vasiliy-maslov/food-delivery/internal/order"
	"github.com/vasiliy-maslov/food-delivery/internal/rating"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

const (
	favoritesAddedMessage    = "Customer's favorite restaurants retrieved successfully."
	favoritesRemovedMessage  = "Restaurant removed from customer's favorites successfully."
	favoritesNotFoundMessage = "Customer's cookie was not found."
)

type DeliveryAddressRequest struct {
	AddressID    int    `json:"addressId"`
	AddressLine1 string `json:"addressLine1" label:"Address Line 1" validate:"required,notblank,max=100"`
	AddressLine2 string `json:"addressLine2" label:"Address Line 2" validate:"omitempty,max=100"`
	City         string `json:"city" label:"City" validate:"required,notblank,between=2:50"`
	State        string `json:"state" label:"State" validate:"required,notblank,between=2:20"`
	Postal       string `json:"postal" label:"Postal code" validate:"required,notblank,between=5:10"`
}

type CustomerRequest struct {
	Name      string                   `json:"name" label:"Name" validate:"required,notblank,between=2:30"`
	Email     string                   `json:"email" label:"Email" validate:"required,notblank,email"`
	Phone     string                   `json:"phone" label:"Phone number" validate:"required,notblank,phone=10:11"`
	Addresses []DeliveryAddressRequest `json:"addresses" validate:"dive"`
}

type RestaurantRef struct {
	RestaurantID int `json:"restaurantId"`
}

type FavoritesRequest struct {
	Restaurants []RestaurantRef `json:"restaurants" label:"Restaurants" validate:"required,min=1"`
}

// CustomerOrders is the part of the order service the customer routes read from.
type CustomerOrders interface {
	FindByCustomerID(ctx context.Context, customerID int) ([]order.Order, error)
	ReviewsByCustomerID(ctx context.Context, customerID int) ([]rating.Rating, error)
}

type RestaurantLookup interface {
	FindByID(ctx context.Context, id int) (*restaurant.Restaurant, error)
}

type CustomerHandler struct {
	service     customer.Service
	orders      CustomerOrders
	restaurants RestaurantLookup
	validate    *validator.Validate
}

func NewCustomerHandler(service customer.Service, orders CustomerOrders, restaurants RestaurantLookup) *CustomerHandler {
	return &CustomerHandler{
		service:     service,
		orders:      orders,
		restaurants: restaurants,
		validate:    newValidator(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/customers", h.handleListCustomers)
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers/{id}", h.handleGetCustomer)
	router.Put("/customers/{id}", h.handleUpdateCustomer)
	router.Delete("/customers/{id}", h.handleDeleteCustomer)
	router.Get("/customers/{id}/orders", h.handleGetCustomerOrders)
	router.Get("/customers/{id}/reviews", h.handleGetCustomerReviews)
	router.Post("/customers/{id}/favorites", h.handleAddFavorites)
	router.Delete("/customers/{id}/favorites/{restaurantId}", h.handleRemoveFavorite)
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customers")
		return
	}
	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var requestPayload CustomerRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Create(r.Context(), requestPayload.toCustomer())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create customer")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer by id")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *CustomerHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload CustomerRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, requestPayload.toCustomer())
	if err != nil {
		respondWithServiceError(w, err, "Failed to update customer")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CustomerHandler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) handleGetCustomerOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveCustomer(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.FindByCustomerID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *CustomerHandler) handleGetCustomerReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveCustomer(w, r)
	if !ok {
		return
	}

	reviews, err := h.orders.ReviewsByCustomerID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer reviews")
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *CustomerHandler) handleAddFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload FavoritesRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	if _, err := h.service.FindByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to get customer by id")
		return
	}

	ids := make([]int, 0, len(requestPayload.Restaurants))
	for _, ref := range requestPayload.Restaurants {
		if _, err := h.restaurants.FindByID(r.Context(), ref.RestaurantID); err != nil {
			respondWithServiceError(w, err, "Failed to resolve favorite restaurant")
			return
		}
		ids = append(ids, ref.RestaurantID)
	}

	name := favorites.CookieName(id)
	var current favorites.List
	if cookie, err := r.Cookie(name); err == nil {
		current, ok = parseFavorites(w, id, cookie.Value)
		if !ok {
			return
		}
	}

	writeFavorites(w, name, current.Add(ids...))
	log.Info().Int("customer_id", id).Ints("restaurant_ids", ids).Msg("Favorite restaurants added")
	respondWithText(w, http.StatusOK, favoritesAddedMessage)
}

func (h *CustomerHandler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveCustomer(w, r)
	if !ok {
		return
	}
	restaurantID, ok := parseID(w, r, "restaurantId")
	if !ok {
		return
	}

	name := favorites.CookieName(id)
	cookie, err := r.Cookie(name)
	if err != nil {
		log.Warn().Int("customer_id", id).Msg("Favorites cookie not found")
		respondWithText(w, http.StatusNotFound, favoritesNotFoundMessage)
		return
	}

	current, ok := parseFavorites(w, id, cookie.Value)
	if !ok {
		return
	}

	writeFavorites(w, name, current.Remove(restaurantID))
	log.Info().Int("customer_id", id).Int("restaurant_id", restaurantID).Msg("Favorite restaurant removed")
	respondWithText(w, http.StatusOK, favoritesRemovedMessage)
}

// resolveCustomer parses {id} and checks the customer exists.
func (h *CustomerHandler) resolveCustomer(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return 0, false
	}
	if _, err := h.service.FindByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to get customer by id")
		return 0, false
	}
	return id, true
}

func parseFavorites(w http.ResponseWriter, customerID int, raw string) (favorites.List, bool) {
	list, err := favorites.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Int("customer_id", customerID).Msg("Failed to parse favorites cookie")
		respondWithError(w, http.StatusBadRequest, "Invalid favorites cookie")
		return nil, false
	}
	return list, true
}

func writeFavorites(w http.ResponseWriter, name string, list favorites.List) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    list.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (req CustomerRequest) toCustomer() *customer.Customer {
	c := &customer.Customer{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Addresses: make([]customer.DeliveryAddress, 0, len(req.Addresses)),
	}
	for _, a := range req.Addresses {
		c.Addresses = append(c.Addresses, customer.DeliveryAddress{
			ID:           a.AddressID,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			Postal:       a.Postal,
		})
	}
	return c
}
