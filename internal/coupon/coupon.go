package coupon

import (
	"time"
)

// Coupon is linked many-to-many with orders through orders_coupons.
type Coupon struct {
	ID             int       `json:"couponId" db:"coupon_id"`
	Code           string    `json:"couponCode" db:"coupon_code"`
	DiscountAmount float64   `json:"discountAmount" db:"discount_amount"`
	ExpiryDate     time.Time `json:"expiryDate" db:"expiry_date"`
	OrderIDs       []int     `json:"-" db:"-"`
}

// OrderCoupon is a coupon as seen from one of the orders it is linked to.
type OrderCoupon struct {
	OrderID int `db:"order_id"`
	Coupon
}
