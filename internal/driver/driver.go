package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/db"
)

var ErrDriverNotFound = errors.New("delivery driver not found")

type DeliveryDriver struct {
	ID      int    `json:"driverId" db:"driver_id"`
	Name    string `json:"name" db:"driver_name"`
	Phone   string `json:"phone" db:"driver_phone"`
	Vehicle string `json:"vehicle" db:"driver_vehicle"`
}

type Repository interface {
	FindAll(ctx context.Context) ([]DeliveryDriver, error)
	FindByID(ctx context.Context, id int) (*DeliveryDriver, error)
	FindLast(ctx context.Context) (*DeliveryDriver, error)
	Save(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error)
	DeleteByID(ctx context.Context, id int) error
}

const driverColumns = `driver_id, driver_name, driver_phone, driver_vehicle`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]DeliveryDriver, error) {
	drivers := make([]DeliveryDriver, 0)
	if err := r.db.SelectContext(ctx, &drivers, `SELECT `+driverColumns+` FROM delivery_drivers ORDER BY driver_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select drivers: %w", err)
	}
	return drivers, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*DeliveryDriver, error) {
	var d DeliveryDriver
	if err := r.db.GetContext(ctx, &d, `SELECT `+driverColumns+` FROM delivery_drivers WHERE driver_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("repository: failed to select driver by id %d: %w", id, err)
	}
	return &d, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*DeliveryDriver, error) {
	var d DeliveryDriver
	if err := r.db.GetContext(ctx, &d, `SELECT `+driverColumns+` FROM delivery_drivers ORDER BY driver_id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last driver: %w", err)
	}
	return &d, nil
}

func (r *postgresRepository) Save(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error) {
	query := `
		INSERT INTO delivery_drivers (driver_id, driver_name, driver_phone, driver_vehicle)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id) DO UPDATE
		SET driver_name = EXCLUDED.driver_name,
		    driver_phone = EXCLUDED.driver_phone,
		    driver_vehicle = EXCLUDED.driver_vehicle`
	if _, err := r.db.ExecContext(ctx, query, d.ID, d.Name, d.Phone, d.Vehicle); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert driver %d: %w", d.ID, apperror.FromDB(err))
	}
	return d, nil
}

// DeleteByID unassigns the driver's orders instead of deleting them.
func (r *postgresRepository) DeleteByID(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET delivery_driver_id = NULL WHERE delivery_driver_id = $1`, id); err != nil {
			return fmt.Errorf("repository: failed to unassign orders of driver %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM delivery_drivers WHERE driver_id = $1`, id)
		if err != nil {
			return fmt.Errorf("repository: failed to delete driver %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("repository: failed to read rows affected for driver %d: %w", id, err)
		}
		if affected == 0 {
			return ErrDriverNotFound
		}
		return nil
	})
}

type Service interface {
	FindAll(ctx context.Context) ([]DeliveryDriver, error)
	FindByID(ctx context.Context, id int) (*DeliveryDriver, error)
	FindLast(ctx context.Context) (*DeliveryDriver, error)
	Create(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error)
	Save(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error)
	DeleteByID(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindAll(ctx context.Context) ([]DeliveryDriver, error) {
	drivers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find drivers: %w", err)
	}
	return drivers, nil
}

func (s *service) FindByID(ctx context.Context, id int) (*DeliveryDriver, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDriverNotFound) {
			log.Warn().Int("driver_id", id).Msg("Delivery driver not found")
			return nil, apperror.NotFound(ErrDriverNotFound, "Delivery Driver with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find driver by id %d: %w", id, err)
	}
	return d, nil
}

func (s *service) FindLast(ctx context.Context) (*DeliveryDriver, error) {
	d, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrDriverNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("failed to find last driver: %w", err)
	}
	return d, nil
}

func (s *service) Create(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error) {
	last, err := s.FindLast(ctx)
	switch {
	case errors.Is(err, ErrDriverNotFound):
		d.ID = 1
	case err != nil:
		return nil, fmt.Errorf("failed to compute next driver id: %w", err)
	default:
		d.ID = last.ID + 1
	}
	return s.Save(ctx, d)
}

func (s *service) Save(ctx context.Context, d *DeliveryDriver) (*DeliveryDriver, error) {
	saved, err := s.repo.Save(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to save driver %d: %w", d.ID, err)
	}
	log.Info().Int("driver_id", saved.ID).Msg("Delivery driver saved")
	return saved, nil
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrDriverNotFound) {
			return apperror.NotFound(ErrDriverNotFound, "Delivery Driver with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete driver %d: %w", id, err)
	}
	log.Info().Int("driver_id", id).Msg("Delivery driver deleted")
	return nil
}
