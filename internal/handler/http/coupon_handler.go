package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/food-delivery/internal/coupon"
)

type CouponRequest struct {
	CouponCode     string    `json:"couponCode" label:"Coupon code" validate:"omitempty,max=20"`
	DiscountAmount float64   `json:"discountAmount" label:"Discount amount" validate:"gt=0,price"`
	ExpiryDate     *DateTime `json:"expiryDate" label:"Expiry date" validate:"required"`
}

type CouponHandler struct {
	service  coupon.Service
	validate *validator.Validate
}

func NewCouponHandler(service coupon.Service) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CouponHandler) RegisterRoutes(router chi.Router) {
	router.Get("/coupons", h.handleListCoupons)
	router.Post("/coupons", h.handleCreateCoupon)
	router.Get("/coupons/{id}", h.handleGetCoupon)
	router.Delete("/coupons/{id}", h.handleDeleteCoupon)
}

func (h *CouponHandler) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list coupons")
		return
	}
	respondWithJSON(w, http.StatusOK, coupons)
}

func (h *CouponHandler) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var requestPayload CouponRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Create(r.Context(), &coupon.Coupon{
		Code:           requestPayload.CouponCode,
		DiscountAmount: requestPayload.DiscountAmount,
		ExpiryDate:     requestPayload.ExpiryDate.Time,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create coupon")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CouponHandler) handleGetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get coupon by id")
		return
	}
	respondWithJSON(w, http.StatusOK, found)
}

func (h *CouponHandler) handleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete coupon")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
