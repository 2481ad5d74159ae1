package coupon

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

var ErrCouponNotFound = errors.New("coupon not found")

type Repository interface {
	FindAll(ctx context.Context) ([]Coupon, error)
	FindByID(ctx context.Context, id int) (*Coupon, error)
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]OrderCoupon, error)
	FindLast(ctx context.Context) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) (*Coupon, error)
	DeleteByID(ctx context.Context, id int) error
}

const couponColumns = `coupon_id, coupon_code, discount_amount, expiry_date`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Coupon, error) {
	coupons := make([]Coupon, 0)
	if err := r.db.SelectContext(ctx, &coupons, `SELECT `+couponColumns+` FROM coupons ORDER BY coupon_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select coupons: %w", err)
	}
	return coupons, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*Coupon, error) {
	var c Coupon
	if err := r.db.GetContext(ctx, &c, `SELECT `+couponColumns+` FROM coupons WHERE coupon_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("repository: failed to select coupon by id %d: %w", id, err)
	}

	c.OrderIDs = make([]int, 0)
	query := `SELECT order_id FROM orders_coupons WHERE coupon_id = $1 ORDER BY order_id`
	if err := r.db.SelectContext(ctx, &c.OrderIDs, query, id); err != nil {
		return nil, fmt.Errorf("repository: failed to select orders linked to coupon %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) FindByOrderIDs(ctx context.Context, orderIDs []int) ([]OrderCoupon, error) {
	linked := make([]OrderCoupon, 0)
	if len(orderIDs) == 0 {
		return linked, nil
	}
	query := `
		SELECT oc.order_id, c.coupon_id, c.coupon_code, c.discount_amount, c.expiry_date
		FROM orders_coupons oc
		JOIN coupons c ON c.coupon_id = oc.coupon_id
		WHERE oc.order_id = ANY($1)
		ORDER BY oc.order_id, c.coupon_id`
	if err := r.db.SelectContext(ctx, &linked, query, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("repository: failed to select coupons for orders: %w", err)
	}
	return linked, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*Coupon, error) {
	var c Coupon
	if err := r.db.GetContext(ctx, &c, `SELECT `+couponColumns+` FROM coupons ORDER BY coupon_id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last coupon: %w", err)
	}
	return &c, nil
}

// Save upserts the coupon and adds a link row for every order in OrderIDs.
// Existing links are never removed here.
func (r *postgresRepository) Save(ctx context.Context, c *Coupon) (*Coupon, error) {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO coupons (coupon_id, coupon_code, discount_amount, expiry_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (coupon_id) DO UPDATE
			SET coupon_code = EXCLUDED.coupon_code,
			    discount_amount = EXCLUDED.discount_amount,
			    expiry_date = EXCLUDED.expiry_date`
		if _, err := tx.ExecContext(ctx, query, c.ID, c.Code, c.DiscountAmount, c.ExpiryDate); err != nil {
			return fmt.Errorf("repository: failed to upsert coupon %d: %w", c.ID, apperror.FromDB(err))
		}

		for _, orderID := range c.OrderIDs {
			link := `INSERT INTO orders_coupons (coupon_id, order_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
			if _, err := tx.ExecContext(ctx, link, c.ID, orderID); err != nil {
				return fmt.Errorf("repository: failed to link coupon %d to order %d: %w", c.ID, orderID, apperror.FromDB(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepository) DeleteByID(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders_coupons WHERE coupon_id = $1`, id); err != nil {
			return fmt.Errorf("repository: failed to unlink coupon %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM coupons WHERE coupon_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete coupon %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for coupon %d: %w", id, err)
		}
		if affected == 0 {
			return ErrCouponNotFound
		}
		return nil
	})
}
