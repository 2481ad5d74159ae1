package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/db"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
)

type Repository interface {
	FindAll(ctx context.Context) ([]Order, error)
	FindByID(ctx context.Context, id int) (*Order, error)
	FindByCustomerID(ctx context.Context, customerID int) ([]Order, error)
	FindByDriverID(ctx context.Context, driverID int) ([]Order, error)
	CustomerIDsByRestaurantID(ctx context.Context, restaurantID int) ([]int, error)
	FindLast(ctx context.Context) (*Order, error)
	Save(ctx context.Context, o *Order) (*Order, error)
	DeleteByID(ctx context.Context, id int) error
}

type ItemRepository interface {
	FindAll(ctx context.Context) ([]OrderItem, error)
	FindByID(ctx context.Context, id int) (*OrderItem, error)
	FindLast(ctx context.Context) (*OrderItem, error)
	Save(ctx context.Context, item *OrderItem) (*OrderItem, error)
	DeleteByID(ctx context.Context, id int) error
}

const (
	orderColumns = `order_id, order_date, order_status, customer_id, restaurant_id, delivery_driver_id`
	itemColumns  = `order_item_id, order_id, item_id, quantity`
)

var deleteOrderCascade = []string{
	`DELETE FROM orders_coupons WHERE order_id = $1`,
	`DELETE FROM ratings WHERE order_id = $1`,
	`DELETE FROM order_items WHERE order_id = $1`,
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_id`)
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*Order, error) {
	var o Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	o.Items = make([]OrderItem, 0)
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY order_item_id`
	if err := r.db.SelectContext(ctx, &o.Items, query, id); err != nil {
		return nil, fmt.Errorf("repository: failed to select items for order %d: %w", id, err)
	}
	return &o, nil
}

func (r *postgresRepository) FindByCustomerID(ctx context.Context, customerID int) ([]Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY order_id`, customerID)
}

func (r *postgresRepository) FindByDriverID(ctx context.Context, driverID int) ([]Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE delivery_driver_id = $1 ORDER BY order_id`, driverID)
}

// CustomerIDsByRestaurantID returns one customer id per order, so repeat
// customers appear repeatedly.
func (r *postgresRepository) CustomerIDsByRestaurantID(ctx context.Context, restaurantID int) ([]int, error) {
	ids := make([]int, 0)
	query := `SELECT customer_id FROM orders WHERE restaurant_id = $1 ORDER BY order_id`
	if err := r.db.SelectContext(ctx, &ids, query, restaurantID); err != nil {
		return nil, fmt.Errorf("repository: failed to select customers for restaurant %d: %w", restaurantID, err)
	}
	return ids, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*Order, error) {
	var o Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders ORDER BY order_id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last order: %w", err)
	}
	return &o, nil
}

// Save upserts the order row only. Items, ratings and coupon links are written
// through their own repositories.
func (r *postgresRepository) Save(ctx context.Context, o *Order) (*Order, error) {
	query := `
		INSERT INTO orders (order_id, order_date, order_status, customer_id, restaurant_id, delivery_driver_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO UPDATE
		SET order_date = EXCLUDED.order_date,
		    order_status = EXCLUDED.order_status,
		    customer_id = EXCLUDED.customer_id,
		    restaurant_id = EXCLUDED.restaurant_id,
		    delivery_driver_id = EXCLUDED.delivery_driver_id`
	if _, err := r.db.ExecContext(ctx, query,
		o.ID, o.OrderDate, o.Status, o.CustomerID, o.RestaurantID, o.DeliveryDriverID,
	); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert order %d: %w", o.ID, apperror.FromDB(err))
	}
	return o, nil
}

func (r *postgresRepository) DeleteByID(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, stmt := range deleteOrderCascade {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("repository: failed to cascade delete for order %d: %w", id, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete order %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for order %d: %w", id, err)
		}
		if affected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func (r *postgresRepository) selectOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	orders := make([]Order, 0)
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("repository: failed to select orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items := make([]OrderItem, 0)
	itemQuery := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY order_item_id`
	if err := r.db.SelectContext(ctx, &items, itemQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("repository: failed to select items for orders: %w", err)
	}

	byOrder := make(map[int][]OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []OrderItem{}
		}
	}
	return orders, nil
}

type itemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(conn *sqlx.DB) ItemRepository {
	return &itemRepository{db: conn}
}

func (r *itemRepository) FindAll(ctx context.Context) ([]OrderItem, error) {
	items := make([]OrderItem, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM order_items ORDER BY order_item_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select order items: %w", err)
	}
	return items, nil
}

func (r *itemRepository) FindByID(ctx context.Context, id int) (*OrderItem, error) {
	var item OrderItem
	if err := r.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM order_items WHERE order_item_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order item by id %d: %w", id, err)
	}
	return &item, nil
}

func (r *itemRepository) FindLast(ctx context.Context) (*OrderItem, error) {
	var item OrderItem
	if err := r.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM order_items ORDER BY order_item_id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last order item: %w", err)
	}
	return &item, nil
}

func (r *itemRepository) Save(ctx context.Context, item *OrderItem) (*OrderItem, error) {
	query := `
		INSERT INTO order_items (order_item_id, order_id, item_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_item_id) DO UPDATE
		SET order_id = EXCLUDED.order_id,
		    item_id = EXCLUDED.item_id,
		    quantity = EXCLUDED.quantity`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.OrderID, item.MenuItemID, item.Quantity); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert order item %d: %w", item.ID, apperror.FromDB(err))
	}
	return item, nil
}

func (r *itemRepository) DeleteByID(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_item_id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to read rows affected for order item %d: %w", id, err)
	}
	if affected == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}
