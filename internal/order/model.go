package order

import (
	"time"

	"github.com/vasiliy-maslov/food-delivery/internal/coupon"
	"github.com/vasiliy-maslov/food-delivery/internal/driver"
	"github.com/vasiliy-maslov/food-delivery/internal/rating"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

type Order struct {
	ID               int             `json:"orderId" db:"order_id"`
	OrderDate        time.Time       `json:"orderDate" db:"order_date"`
	Status           string          `json:"orderStatus" db:"order_status"`
	CustomerID       int             `json:"customerId" db:"customer_id"`
	RestaurantID     int             `json:"restaurantId" db:"restaurant_id"`
	DeliveryDriverID *int            `json:"deliveryDriverId" db:"delivery_driver_id"`
	Items            []OrderItem     `json:"items" db:"-"`
	Ratings          []rating.Rating `json:"ratings" db:"-"`
	Coupons          []coupon.Coupon `json:"coupons" db:"-"`
}

type OrderItem struct {
	ID         int `json:"orderItemId" db:"order_item_id"`
	OrderID    int `json:"orderId" db:"order_id"`
	MenuItemID int `json:"menuItemId" db:"item_id"`
	Quantity   int `json:"quantity" db:"quantity"`

	// MenuItem is only filled in on the response to a placement.
	MenuItem *restaurant.MenuItem `json:"menuItem,omitempty" db:"-"`
}

type Line struct {
	MenuItemID int
	Quantity   int
}

type Review struct {
	Score  int
	Review string
}

// Placement is a request to create an order together with its lines, reviews
// and coupon links.
type Placement struct {
	CustomerID   int
	RestaurantID int
	OrderDate    time.Time
	Status       string
	Lines        []Line
	Reviews      []Review
	CouponIDs    []int
}

// AssignedDriver is a driver together with every order currently assigned to it.
type AssignedDriver struct {
	driver.DeliveryDriver
	Orders []Order `json:"orders"`
}
