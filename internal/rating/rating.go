package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
)

var ErrRatingNotFound = errors.New("rating not found")

// Rating is a review left on an order; it also points at the restaurant that served it.
type Rating struct {
	ID           int    `json:"ratingId" db:"rating_id"`
	OrderID      int    `json:"orderId" db:"order_id"`
	RestaurantID int    `json:"restaurantId" db:"restaurant_id"`
	Score        int    `json:"rating" db:"rating"`
	Review       string `json:"review" db:"review"`
}

type Repository interface {
	FindAll(ctx context.Context) ([]Rating, error)
	FindByID(ctx context.Context, id int) (*Rating, error)
	FindByRestaurantID(ctx context.Context, restaurantID int) ([]Rating, error)
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]Rating, error)
	FindLast(ctx context.Context) (*Rating, error)
	Save(ctx context.Context, r *Rating) (*Rating, error)
	DeleteByID(ctx context.Context, id int) error
}

const ratingColumns = `rating_id, order_id, restaurant_id, rating, review`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Rating, error) {
	ratings := make([]Rating, 0)
	if err := r.db.SelectContext(ctx, &ratings, `SELECT `+ratingColumns+` FROM ratings ORDER BY rating_id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select ratings: %w", err)
	}
	return ratings, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int) (*Rating, error) {
	var rt Rating
	if err := r.db.GetContext(ctx, &rt, `SELECT `+ratingColumns+` FROM ratings WHERE rating_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("repository: failed to select rating by id %d: %w", id, err)
	}
	return &rt, nil
}

func (r *postgresRepository) FindByRestaurantID(ctx context.Context, restaurantID int) ([]Rating, error) {
	ratings := make([]Rating, 0)
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE restaurant_id = $1 ORDER BY rating_id`
	if err := r.db.SelectContext(ctx, &ratings, query, restaurantID); err != nil {
		return nil, fmt.Errorf("repository: failed to select ratings for restaurant %d: %w", restaurantID, err)
	}
	return ratings, nil
}

func (r *postgresRepository) FindByOrderIDs(ctx context.Context, orderIDs []int) ([]Rating, error) {
	ratings := make([]Rating, 0)
	if len(orderIDs) == 0 {
		return ratings, nil
	}
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE order_id = ANY($1) ORDER BY rating_id`
	if err := r.db.SelectContext(ctx, &ratings, query, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("repository: failed to select ratings for orders: %w", err)
	}
	return ratings, nil
}

func (r *postgresRepository) FindLast(ctx context.Context) (*Rating, error) {
	var rt Rating
	if err := r.db.GetContext(ctx, &rt, `SELECT `+ratingColumns+` FROM ratings ORDER BY rating_id DESC LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("repository: failed to select last rating: %w", err)
	}
	return &rt, nil
}

func (r *postgresRepository) Save(ctx context.Context, rt *Rating) (*Rating, error) {
	query := `
		INSERT INTO ratings (rating_id, order_id, restaurant_id, rating, review)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (rating_id) DO UPDATE
		SET order_id = EXCLUDED.order_id,
		    restaurant_id = EXCLUDED.restaurant_id,
		    rating = EXCLUDED.rating,
		    review = EXCLUDED.review`
	if _, err := r.db.ExecContext(ctx, query, rt.ID, rt.OrderID, rt.RestaurantID, rt.Score, rt.Review); err != nil {
		return nil, fmt.Errorf("repository: failed to upsert rating %d: %w", rt.ID, apperror.FromDB(err))
	}
	return rt, nil
}

func (r *postgresRepository) DeleteByID(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE rating_id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete rating %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRatingNotFound
	}
	return nil
}

type Service interface {
	FindAll(ctx context.Context) ([]Rating, error)
	FindByID(ctx context.Context, id int) (*Rating, error)
	FindByRestaurantID(ctx context.Context, restaurantID int) ([]Rating, error)
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]Rating, error)
	FindLast(ctx context.Context) (*Rating, error)
	Save(ctx context.Context, r *Rating) (*Rating, error)
	DeleteByID(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindAll(ctx context.Context) ([]Rating, error) {
	ratings, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find ratings: %w", err)
	}
	return ratings, nil
}

func (s *service) FindByID(ctx context.Context, id int) (*Rating, error) {
	rt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRatingNotFound) {
			return nil, apperror.NotFound(ErrRatingNotFound, "Rating with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find rating by id %d: %w", id, err)
	}
	return rt, nil
}

func (s *service) FindByRestaurantID(ctx context.Context, restaurantID int) ([]Rating, error) {
	ratings, err := s.repo.FindByRestaurantID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ratings for restaurant %d: %w", restaurantID, err)
	}
	return ratings, nil
}

func (s *service) FindByOrderIDs(ctx context.Context, orderIDs []int) ([]Rating, error) {
	ratings, err := s.repo.FindByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find ratings for orders: %w", err)
	}
	return ratings, nil
}

func (s *service) FindLast(ctx context.Context) (*Rating, error) {
	rt, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to find last rating: %w", err)
	}
	return rt, nil
}

func (s *service) Save(ctx context.Context, rt *Rating) (*Rating, error) {
	saved, err := s.repo.Save(ctx, rt)
	if err != nil {
		return nil, fmt.Errorf("failed to save rating %d: %w", rt.ID, err)
	}
	log.Info().Int("rating_id", saved.ID).Int("order_id", saved.OrderID).Msg("Rating saved")
	return saved, nil
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrRatingNotFound) {
			return apperror.NotFound(ErrRatingNotFound, "Rating with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete rating %d: %w", id, err)
	}
	return nil
}
