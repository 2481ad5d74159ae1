package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/order"
	"github.com/vasiliy-maslov/food-delivery/internal/receipt"
)

type CustomerRef struct {
	CustomerID int `json:"customerId"`
}

type MenuItemRef struct {
	MenuItemID int `json:"menuItemId"`
}

type CouponRef struct {
	CouponID int `json:"couponId"`
}

type OrderItemRequest struct {
	MenuItem MenuItemRef `json:"menuItem"`
	Quantity int         `json:"quantity" label:"Quantity" validate:"gt=0"`
}

type RatingRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review" label:"Review" validate:"required,notblank,between=10:500"`
}

type PlaceOrderRequest struct {
	OrderDate   *DateTime          `json:"orderDate" label:"Order Date" validate:"required"`
	Customer    CustomerRef        `json:"customer"`
	Restaurant  RestaurantRef      `json:"restaurant"`
	Items       []OrderItemRequest `json:"items" label:"Items" validate:"required,min=1,dive"`
	Ratings     []RatingRequest    `json:"ratings" validate:"dive"`
	Coupons     []CouponRef        `json:"coupons"`
	OrderStatus string             `json:"orderStatus" label:"Order Status" validate:"required,notblank,between=2:10"`
}

type OrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" label:"Order Status" validate:"required,notblank,between=2:10"`
}

type OrderHandler struct {
	service  order.Service
	receipts receipt.Generator
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, receipts receipt.Generator) *OrderHandler {
	return &OrderHandler{
		service:  service,
		receipts: receipts,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListOrders)
	router.Post("/orders", h.handlePlaceOrder)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Put("/orders/{id}/status", h.handleUpdateStatus)
	router.Delete("/orders/{id}", h.handleDeleteOrder)
	router.Put("/orders/{orderId}/assignDriver/{driverId}", h.handleAssignDriver)
	router.Get("/orders/{id}/qrcode", h.handleGetQRCode)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload PlaceOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	placed, err := h.service.PlaceOrder(r.Context(), requestPayload.toPlacement())
	if err != nil {
		respondWithServiceError(w, err, "Failed to place order")
		return
	}
	respondWithJSON(w, http.StatusCreated, placed)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order by id")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var requestPayload OrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, requestPayload.OrderStatus)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *OrderHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleAssignDriver(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(w, r, "orderId")
	if !ok {
		return
	}
	driverID, ok := parseID(w, r, "driverId")
	if !ok {
		return
	}

	assigned, err := h.service.AssignDriver(r.Context(), orderID, driverID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to assign delivery driver")
		return
	}
	respondWithJSON(w, http.StatusOK, assigned)
}

func (h *OrderHandler) handleGetQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.service.FindByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to get order by id")
		return
	}

	png, err := h.receipts.Generate(id)
	if err != nil {
		log.Error().Err(err).Int("order_id", id).Msg("Failed to generate order qr code")
		respondWithError(w, http.StatusInternalServerError, "Failed to generate qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write qr code response")
	}
}

func (req PlaceOrderRequest) toPlacement() order.Placement {
	p := order.Placement{
		CustomerID:   req.Customer.CustomerID,
		RestaurantID: req.Restaurant.RestaurantID,
		OrderDate:    req.OrderDate.Time,
		Status:       req.OrderStatus,
		Lines:        make([]order.Line, 0, len(req.Items)),
		Reviews:      make([]order.Review, 0, len(req.Ratings)),
		CouponIDs:    make([]int, 0, len(req.Coupons)),
	}
	for _, item := range req.Items {
		p.Lines = append(p.Lines, order.Line{MenuItemID: item.MenuItem.MenuItemID, Quantity: item.Quantity})
	}
	for _, rt := range req.Ratings {
		p.Reviews = append(p.Reviews, order.Review{Score: rt.Rating, Review: rt.Review})
	}
	for _, c := range req.Coupons {
		p.CouponIDs = append(p.CouponIDs, c.CouponID)
	}
	return p
}
