package restaurant

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
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
)

type Repository interface {
	FindAll(ctx context.Context) ([]Restaurant, error)
	FindByID(ctx context.Context, id int) (*Restaurant, error)
	FindLast(ctx context.Context) (*Restaurant, error)
	Save(ctx context.Context, r *Restaurant) (*Restaurant, error)
	DeleteByID(ctx context.Context, id int) error
}

type MenuItemRepository interface {
	FindAll(ctx context.Context) ([]MenuItem, error)
	FindByID(ctx context.Context, id int) (*MenuItem, error)
	FindByRestaurantID(ctx context.Context, restaurantID int) ([]MenuItem, error)
	FindLast(ctx context.Context) (*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) (*MenuItem, error)
	DeleteByID(ctx context.Context, id int) error
}

const (
	restaurantColumns = `restaurant_id, restaurant_name, restaurant_address, restaurant_phone`
	menuItemColumns   = `item_id, restaurant_id, item_name, item_description, item_price`

	upsertRestaurantQuery = `
		INSERT INTO restaurants (restaurant_id, restaurant_name, restaurant_address, restaurant_phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (restaurant_id) DO UPDATE
		SET restaurant_name = EXCLUDED.restaurant_name,
		    restaurant_address = EXCLUDED.restaurant_address,
		    restaurant_phone = EXCLUDED.restaurant_phone`

	upsertMenuItemQuery = `
		INSERT INTO menu_items (item_id, restaurant_id, item_name, item_description, item_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO UPDATE
		SET restaurant_id = EXCLUDED.restaurant_id,
		    item_name = EXCLUDED.item_name,
		    item_description = EXCLUDED.item_description,
		    item_price = EXCLUDED.item_price`
)

// Orders of the restaurant and their children go first, then ratings and
// order lines that point at the menu, then the menu itself.
var deleteRestaurantCascade = []string{
	`DELETE FROM orders_coupons WHERE order_id IN (SELECT order_id FROM orders WHERE restaurant_id = $1)`,
	`DELETE FROM ratings WHERE order_id IN (SELECT order_id FROM orders WHERE restaurant_id = $1)`,
	`DELETE FROM order_items WHERE order_id IN (SELECT order_id FROM orders WHERE restaurant_id = $1)`,
	`DELETE FROM orders WHERE restaurant_id = $1`,
	`DELETE FROM ratings WHERE restaurant_id = $1`,
	`DELETE FROM order_items WHERE item_id IN (SELECT item_id FROM menu_items WHERE restaurant_id = $1)`,
	`DELETE FROM menu_items WHERE restaurant_id = $1`,
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Restaurant, error) {
	restaurants := make([]Restaurant, 0)
	if err := r.db.SelectContext(ctx, &restaurants, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY restaurant_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select restaurants: %w", err)
	}
	if len(restaurants) == 0 {
		return restaurants, nil
	}

	ids := make([]int, len(restaurants))
	for i, rs := range restaurants {
		ids[i] = rs.ID
	}

	items := make([]MenuItem, 0)
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = ANY($1) ORDER BY item_id`
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("repository: failed to select menu items for restaurants: %w", err)
	}

	byRestaurant := make(map[int][]MenuItem, len(restaurants))
	for _, item := range items {
		byRestaurant[item.RestaurantID] = append(byRestaurant[item.RestaurantID], item)
	}
	for i := range restaurants {
		restaurants[i].MenuItems = byRestaurant[restaurants[i].ID]
		if restaurants[i].MenuItems == nil {
			restaurants[i].MenuItems = []MenuItem{}
		}
	}

	return restaurants, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*Restaurant, error) {
	var rs Restaurant
	err := r.db.GetContext(ctx, &rs, `SELECT `+restaurantColumns+` FROM restaurants WHERE restaurant_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("repository: failed to select restaurant by id %d: %w", id, err)
	}

	rs.MenuItems = make([]MenuItem, 0)
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = $1 ORDER BY item_id`
	if err := r.db.SelectContext(ctx, &rs.MenuItems, query, id); err != nil {
		return nil, fmt.Errorf("repository: failed to select menu items for restaurant %d: %w", id, err)
	}

	return &rs, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*Restaurant, error) {
	var rs Restaurant
	err := r.db.GetContext(ctx, &rs, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY restaurant_id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last restaurant: %w", err)
	}
	return &rs, nil
}

// Save upserts the restaurant and every menu item attached to it.
func (r *postgresRepository) Save(ctx context.Context, rs *Restaurant) (*Restaurant, error) {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertRestaurantQuery, rs.ID, rs.Name, rs.Address, rs.Phone); err != nil {
			return fmt.Errorf("repository: failed to upsert restaurant %d: %w", rs.ID, apperror.FromDB(err))
		}
		for i := range rs.MenuItems {
			item := &rs.MenuItems[i]
			item.RestaurantID = rs.ID
			if _, err := tx.ExecContext(ctx, upsertMenuItemQuery,
				item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
			); err != nil {
				return fmt.Errorf("repository: failed to upsert menu item %d for restaurant %d: %w", item.ID, rs.ID, apperror.FromDB(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *postgresRepository) DeleteByID(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, stmt := range deleteRestaurantCascade {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("repository: failed to cascade delete for restaurant %d: %w", id, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM restaurants WHERE restaurant_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete restaurant %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for restaurant %d: %w", id, err)
		}
		if affected == 0 {
			return ErrRestaurantNotFound
		}
		return nil
	})
}

type menuItemRepository struct {
	db *sqlx.DB
}

func NewMenuItemRepository(conn *sqlx.DB) MenuItemRepository {
	return &menuItemRepository{db: conn}
}

func (r *menuItemRepository) FindAll(ctx context.Context) ([]MenuItem, error) {
	items := make([]MenuItem, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+menuItemColumns+` FROM menu_items ORDER BY item_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select menu items: %w", err)
	}
	return items, nil
}

func (r *menuItemRepository) FindByID(ctx context.Context, id int) (*MenuItem, error) {
	var item MenuItem
	err := r.db.GetContext(ctx, &item, `SELECT `+menuItemColumns+` FROM menu_items WHERE item_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select menu item by id %d: %w", id, err)
	}
	return &item, nil
}

func (r *menuItemRepository) FindByRestaurantID(ctx context.Context, restaurantID int) ([]MenuItem, error) {
	items := make([]MenuItem, 0)
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = $1 ORDER BY item_id`
	if err := r.db.SelectContext(ctx, &items, query, restaurantID); err != nil {
		return nil, fmt.Errorf("repository: failed to select menu items for restaurant %d: %w", restaurantID, err)
	}
	return items, nil
}

func (r *menuItemRepository) FindLast(ctx context.Context) (*MenuItem, error) {
	var item MenuItem
	err := r.db.GetContext(ctx, &item, `SELECT `+menuItemColumns+` FROM menu_items ORDER BY item_id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last menu item: %w", err)
	}
	return &item, nil
}

func (r *menuItemRepository) Save(ctx context.Context, item *MenuItem) (*MenuItem, error) {
	if _, err := r.db.ExecContext(ctx, upsertMenuItemQuery,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
	); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert menu item %d: %w", item.ID, apperror.FromDB(err))
	}
	return item, nil
}

// DeleteByID removes the order lines that reference the item before the item itself.
func (r *menuItemRepository) DeleteByID(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE item_id = $1`, id); err != nil {
			return fmt.Errorf("repository: failed to delete order items for menu item %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE item_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete menu item %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for menu item %d: %w", id, err)
		}
		if affected == 0 {
			return ErrMenuItemNotFound
		}
		return nil
	})
}
