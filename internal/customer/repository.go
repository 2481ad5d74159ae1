package customer

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
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAddressNotFound  = errors.New("delivery address not found")
)

type Repository interface {
	FindAll(ctx context.Context) ([]Customer, error)
	FindByID(ctx context.Context, id int) (*Customer, error)
	FindLast(ctx context.Context) (*Customer, error)
	Save(ctx context.Context, c *Customer) (*Customer, error)
	DeleteByID(ctx context.Context, id int) error
}

type AddressRepository interface {
	FindAll(ctx context.Context) ([]DeliveryAddress, error)
	FindByID(ctx context.Context, id int) (*DeliveryAddress, error)
	FindByCustomerID(ctx context.Context, customerID int) ([]DeliveryAddress, error)
	FindLast(ctx context.Context) (*DeliveryAddress, error)
	Save(ctx context.Context, a *DeliveryAddress) (*DeliveryAddress, error)
	DeleteByID(ctx context.Context, id int) error
}

const (
	customerColumns = `customer_id, customer_name, customer_email, customer_phone`
	addressColumns  = `address_id, customer_id, address_line1, address_line2, city, state, postal`

	upsertCustomerQuery = `
		INSERT INTO customers (customer_id, customer_name, customer_email, customer_phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE
		SET customer_name = EXCLUDED.customer_name,
		    customer_email = EXCLUDED.customer_email,
		    customer_phone = EXCLUDED.customer_phone`

	upsertAddressQuery = `
		INSERT INTO delivery_addresses (address_id, customer_id, address_line1, address_line2, city, state, postal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
		    address_line1 = EXCLUDED.address_line1,
		    address_line2 = EXCLUDED.address_line2,
		    city = EXCLUDED.city,
		    state = EXCLUDED.state,
		    postal = EXCLUDED.postal`
)

// Order children go first, then the orders, then addresses, then the customer row.
var deleteCustomerCascade = []string{
	`DELETE FROM orders_coupons WHERE order_id IN (SELECT order_id FROM orders WHERE customer_id = $1)`,
	`DELETE FROM ratings WHERE order_id IN (SELECT order_id FROM orders WHERE customer_id = $1)`,
	`DELETE FROM order_items WHERE order_id IN (SELECT order_id FROM orders WHERE customer_id = $1)`,
	`DELETE FROM orders WHERE customer_id = $1`,
	`DELETE FROM delivery_addresses WHERE customer_id = $1`,
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Customer, error) {
	customers := make([]Customer, 0)
	if err := r.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customers ORDER BY customer_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select customers: %w", err)
	}
	if len(customers) == 0 {
		return customers, nil
	}

	ids := make([]int, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}

	addresses := make([]DeliveryAddress, 0)
	query := `SELECT ` + addressColumns + ` FROM delivery_addresses WHERE customer_id = ANY($1) ORDER BY address_id`
	if err := r.db.SelectContext(ctx, &addresses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("repository: failed to select addresses for customers: %w", err)
	}

	byCustomer := make(map[int][]DeliveryAddress, len(customers))
	for _, a := range addresses {
		byCustomer[a.CustomerID] = append(byCustomer[a.CustomerID], a)
	}
	for i := range customers {
		customers[i].Addresses = byCustomer[customers[i].ID]
		if customers[i].Addresses == nil {
			customers[i].Addresses = []DeliveryAddress{}
		}
	}

	return customers, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %d: %w", id, err)
	}

	c.Addresses = make([]DeliveryAddress, 0)
	query := `SELECT ` + addressColumns + ` FROM delivery_addresses WHERE customer_id = $1 ORDER BY address_id`
	if err := r.db.SelectContext(ctx, &c.Addresses, query, id); err != nil {
		return nil, fmt.Errorf("repository: failed to select addresses for customer %d: %w", id, err)
	}

	return &c, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers ORDER BY customer_id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last customer: %w", err)
	}
	return &c, nil
}

// Save upserts the customer row and every address attached to it. Addresses that are
// no longer attached are left untouched.
func (r *postgresRepository) Save(ctx context.Context, c *Customer) (*Customer, error) {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertCustomerQuery, c.ID, c.Name, c.Email, c.Phone); err != nil {
			return fmt.Errorf("repository: failed to upsert customer %d: %w", c.ID, apperror.FromDB(err))
		}
		for i := range c.Addresses {
			a := &c.Addresses[i]
			a.CustomerID = c.ID
			if _, err := tx.ExecContext(ctx, upsertAddressQuery,
				a.ID, a.CustomerID, a.AddressLine1, a.AddressLine2, a.City, a.State, a.Postal,
			); err != nil {
				return fmt.Errorf("repository: failed to upsert address %d for customer %d: %w", a.ID, c.ID, apperror.FromDB(err))
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
		for _, stmt := range deleteCustomerCascade {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("repository: failed to cascade delete for customer %d: %w", id, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete customer %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for customer %d: %w", id, err)
		}
		if affected == 0 {
			return ErrCustomerNotFound
		}
		return nil
	})
}

type addressRepository struct {
	db *sqlx.DB
}

func NewAddressRepository(conn *sqlx.DB) AddressRepository {
	return &addressRepository{db: conn}
}

func (r *addressRepository) FindAll(ctx context.Context) ([]DeliveryAddress, error) {
	addresses := make([]DeliveryAddress, 0)
	if err := r.db.SelectContext(ctx, &addresses, `SELECT `+addressColumns+` FROM delivery_addresses ORDER BY address_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) FindByID(ctx context.Context, id int) (*DeliveryAddress, error) {
	var a DeliveryAddress
	err := r.db.GetContext(ctx, &a, `SELECT `+addressColumns+` FROM delivery_addresses WHERE address_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("repository: failed to select address by id %d: %w", id, err)
	}
	return &a, nil
}

func (r *addressRepository) FindByCustomerID(ctx context.Context, customerID int) ([]DeliveryAddress, error) {
	addresses := make([]DeliveryAddress, 0)
	query := `SELECT ` + addressColumns + ` FROM delivery_addresses WHERE customer_id = $1 ORDER BY address_id`
	if err := r.db.SelectContext(ctx, &addresses, query, customerID); err != nil {
		return nil, fmt.Errorf("repository: failed to select addresses for customer %d: %w", customerID, err)
	}
	return addresses, nil
}

func (r *addressRepository) FindLast(ctx context.Context) (*DeliveryAddress, error) {
	var a DeliveryAddress
	err := r.db.GetContext(ctx, &a, `SELECT `+addressColumns+` FROM delivery_addresses ORDER BY address_id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last address: %w", err)
	}
	return &a, nil
}

func (r *addressRepository) Save(ctx context.Context, a *DeliveryAddress) (*DeliveryAddress, error) {
	if _, err := r.db.ExecContext(ctx, upsertAddressQuery,
		a.ID, a.CustomerID, a.AddressLine1, a.AddressLine2, a.City, a.State, a.Postal,
	); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert address %d: %w", a.ID, apperror.FromDB(err))
	}
	return a, nil
}

func (r *addressRepository) DeleteByID(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM delivery_addresses WHERE address_id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete address %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to read rows affected for address %d: %w", id, err)
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
