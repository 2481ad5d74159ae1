package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/coupon"
	"github.com/vasiliy-maslov/food-delivery/internal/customer"
	"github.com/vasiliy-maslov/food-delivery/internal/driver"
	"github.com/vasiliy-maslov/food-delivery/internal/rating"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

type CustomerFinder interface {
	FindByID(ctx context.Context, id int) (*customer.Customer, error)
}

type RestaurantFinder interface {
	FindByID(ctx context.Context, id int) (*restaurant.Restaurant, error)
	FindMenuItemByID(ctx context.Context, itemID int) (*restaurant.MenuItem, error)
}

type RatingStore interface {
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]rating.Rating, error)
	FindLast(ctx context.Context) (*rating.Rating, error)
	Save(ctx context.Context, r *rating.Rating) (*rating.Rating, error)
}

type CouponStore interface {
	FindByID(ctx context.Context, id int) (*coupon.Coupon, error)
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]coupon.OrderCoupon, error)
	Save(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
}

type DriverFinder interface {
	FindByID(ctx context.Context, id int) (*driver.DeliveryDriver, error)
}

type Dependencies struct {
	Customers   CustomerFinder
	Restaurants RestaurantFinder
	Ratings     RatingStore
	Coupons     CouponStore
	Drivers     DriverFinder
}

type Service interface {
	FindAll(ctx context.Context) ([]Order, error)
	FindByID(ctx context.Context, id int) (*Order, error)
	FindByCustomerID(ctx context.Context, customerID int) ([]Order, error)
	FindByDriverID(ctx context.Context, driverID int) ([]Order, error)
	ReviewsByCustomerID(ctx context.Context, customerID int) ([]rating.Rating, error)
	FindLast(ctx context.Context) (*Order, error)
	PlaceOrder(ctx context.Context, p Placement) (*Order, error)
	Save(ctx context.Context, o *Order) (*Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (*Order, error)
	AssignDriver(ctx context.Context, orderID, driverID int) (*AssignedDriver, error)
	DeleteByID(ctx context.Context, id int) error
}

type service struct {
	repo  Repository
	items ItemRepository
	deps  Dependencies
}

func NewService(repo Repository, items ItemRepository, deps Dependencies) Service {
	return &service{repo: repo, items: items, deps: deps}
}

func (s *service) FindAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	return s.withChildren(ctx, orders)
}

func (s *service) FindByID(ctx context.Context, id int) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int("order_id", id).Msg("Order not found")
			return nil, apperror.NotFound(ErrOrderNotFound, "Order not found at ID %d", id)
		}
		return nil, fmt.Errorf("failed to find order by id %d: %w", id, err)
	}

	orders, err := s.withChildren(ctx, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *service) FindByCustomerID(ctx context.Context, customerID int) ([]Order, error) {
	orders, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for customer %d: %w", customerID, err)
	}
	return s.withChildren(ctx, orders)
}

func (s *service) FindByDriverID(ctx context.Context, driverID int) ([]Order, error) {
	orders, err := s.repo.FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for driver %d: %w", driverID, err)
	}
	return s.withChildren(ctx, orders)
}

// ReviewsByCustomerID flattens the ratings of every order the customer placed.
func (s *service) ReviewsByCustomerID(ctx context.Context, customerID int) ([]rating.Rating, error) {
	orders, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for customer %d: %w", customerID, err)
	}
	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return s.deps.Ratings.FindByOrderIDs(ctx, ids)
}

func (s *service) FindLast(ctx context.Context) (*Order, error) {
	o, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find last order: %w", err)
	}
	return o, nil
}

// PlaceOrder resolves the customer and restaurant, writes the bare order and then
// each line, review and coupon link one by one. The writes are independent: a
// lookup failure part way leaves everything written before it in place.
func (s *service) PlaceOrder(ctx context.Context, p Placement) (*Order, error) {
	c, err := s.deps.Customers.FindByID(ctx, p.CustomerID)
	if err != nil {
		return nil, err
	}
	r, err := s.deps.Restaurants.FindByID(ctx, p.RestaurantID)
	if err != nil {
		return nil, err
	}

	orderID, err := s.nextOrderID(ctx)
	if err != nil {
		return nil, err
	}
	o := &Order{
		ID:           orderID,
		OrderDate:    p.OrderDate,
		Status:       p.Status,
		CustomerID:   c.ID,
		RestaurantID: r.ID,
	}
	if _, err := s.Save(ctx, o); err != nil {
		return nil, err
	}

	o.Items = make([]OrderItem, 0, len(p.Lines))
	for _, line := range p.Lines {
		menuItem, err := s.deps.Restaurants.FindMenuItemByID(ctx, line.MenuItemID)
		if err != nil {
			log.Warn().Int("order_id", o.ID).Int("item_id", line.MenuItemID).Msg("Order placement stopped, earlier writes kept")
			return nil, err
		}
		itemID, err := s.nextItemID(ctx)
		if err != nil {
			return nil, err
		}
		item := OrderItem{ID: itemID, OrderID: o.ID, MenuItemID: menuItem.ID, Quantity: line.Quantity, MenuItem: menuItem}
		if _, err := s.items.Save(ctx, &item); err != nil {
			return nil, fmt.Errorf("failed to save item %d of order %d: %w", item.ID, o.ID, err)
		}
		o.Items = append(o.Items, item)
	}

	o.Ratings = make([]rating.Rating, 0, len(p.Reviews))
	for _, review := range p.Reviews {
		ratingID, err := s.nextRatingID(ctx)
		if err != nil {
			return nil, err
		}
		rt := rating.Rating{ID: ratingID, OrderID: o.ID, RestaurantID: r.ID, Score: review.Score, Review: review.Review}
		if _, err := s.deps.Ratings.Save(ctx, &rt); err != nil {
			return nil, err
		}
		o.Ratings = append(o.Ratings, rt)
	}

	o.Coupons = make([]coupon.Coupon, 0, len(p.CouponIDs))
	for _, couponID := range p.CouponIDs {
		cp, err := s.deps.Coupons.FindByID(ctx, couponID)
		if err != nil {
			log.Warn().Int("order_id", o.ID).Int("coupon_id", couponID).Msg("Order placement stopped, earlier writes kept")
			return nil, err
		}
		cp.OrderIDs = append(cp.OrderIDs, o.ID)
		if _, err := s.deps.Coupons.Save(ctx, cp); err != nil {
			return nil, err
		}
		o.Coupons = append(o.Coupons, *cp)
	}

	log.Info().
		Int("order_id", o.ID).
		Int("customer_id", o.CustomerID).
		Int("restaurant_id", o.RestaurantID).
		Int("items", len(o.Items)).
		Msg("Order placed")
	return o, nil
}

func (s *service) Save(ctx context.Context, o *Order) (*Order, error) {
	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to save order %d: %w", o.ID, err)
	}
	return saved, nil
}

func (s *service) UpdateStatus(ctx context.Context, id int, status string) (*Order, error) {
	o, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := o.Status
	o.Status = status
	if _, err := s.Save(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Int("order_id", id).Str("old_status", old).Str("new_status", status).Msg("Order status updated")
	return o, nil
}

// AssignDriver resolves the driver before the order. Assigning the same pair
// twice is not an error.
func (s *service) AssignDriver(ctx context.Context, orderID, driverID int) (*AssignedDriver, error) {
	d, err := s.deps.Drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperror.NotFound(ErrOrderNotFound, "Order with ID %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to find order by id %d: %w", orderID, err)
	}

	o.DeliveryDriverID = &d.ID
	if _, err := s.Save(ctx, o); err != nil {
		return nil, err
	}

	orders, err := s.FindByDriverID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	log.Info().Int("order_id", orderID).Int("driver_id", driverID).Msg("Driver assigned to order")
	return &AssignedDriver{DeliveryDriver: *d, Orders: orders}, nil
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return apperror.NotFound(ErrOrderNotFound, "Order not found at ID %d", id)
		}
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	log.Info().Int("order_id", id).Msg("Order deleted")
	return nil
}

// withChildren attaches ratings and coupons to orders loaded by the repository.
func (s *service) withChildren(ctx context.Context, orders []Order) ([]Order, error) {
	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Ratings = []rating.Rating{}
		orders[i].Coupons = []coupon.Coupon{}
	}

	ratings, err := s.deps.Ratings.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rt := range ratings {
		i := index[rt.OrderID]
		orders[i].Ratings = append(orders[i].Ratings, rt)
	}

	linked, err := s.deps.Coupons.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, lc := range linked {
		i := index[lc.OrderID]
		orders[i].Coupons = append(orders[i].Coupons, lc.Coupon)
	}
	return orders, nil
}

func (s *service) nextOrderID(ctx context.Context) (int, error) {
	last, err := s.repo.FindLast(ctx)
	if errors.Is(err, ErrOrderNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next order id: %w", err)
	}
	return last.ID + 1, nil
}

func (s *service) nextItemID(ctx context.Context) (int, error) {
	last, err := s.items.FindLast(ctx)
	if errors.Is(err, ErrOrderItemNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next order item id: %w", err)
	}
	return last.ID + 1, nil
}

func (s *service) nextRatingID(ctx context.Context) (int, error) {
	last, err := s.deps.Ratings.FindLast(ctx)
	if errors.Is(err, rating.ErrRatingNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next rating id: %w", err)
	}
	return last.ID + 1, nil
}
