package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
)

const generatedCodeLength = 8

type Service interface {
	FindAll(ctx context.Context) ([]Coupon, error)
	FindByID(ctx context.Context, id int) (*Coupon, error)
	FindByOrderIDs(ctx context.Context, orderIDs []int) ([]OrderCoupon, error)
	FindLast(ctx context.Context) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) (*Coupon, error)
	DeleteByID(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindAll(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find coupons: %w", err)
	}
	return coupons, nil
}

func (s *service) FindByID(ctx context.Context, id int) (*Coupon, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			log.Warn().Int("coupon_id", id).Msg("Coupon not found")
			return nil, apperror.NotFound(ErrCouponNotFound, "Coupon with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find coupon by id %d: %w", id, err)
	}
	return c, nil
}

func (s *service) FindByOrderIDs(ctx context.Context, orderIDs []int) ([]OrderCoupon, error) {
	linked, err := s.repo.FindByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find coupons for orders: %w", err)
	}
	return linked, nil
}

func (s *service) FindLast(ctx context.Context) (*Coupon, error) {
	c, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find last coupon: %w", err)
	}
	return c, nil
}

// Create assigns the next synthetic id and, when no code was supplied, a random one.
func (s *service) Create(ctx context.Context, c *Coupon) (*Coupon, error) {
	last, err := s.repo.FindLast(ctx)
	switch {
	case errors.Is(err, ErrCouponNotFound):
		c.ID = 1
	case err != nil:
		return nil, fmt.Errorf("failed to compute next coupon id: %w", err)
	default:
		c.ID = last.ID + 1
	}

	if c.Code == "" {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		c.Code = code
	}

	return s.Save(ctx, c)
}

func (s *service) Save(ctx context.Context, c *Coupon) (*Coupon, error) {
	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to save coupon %d: %w", c.ID, err)
	}
	log.Info().Int("coupon_id", saved.ID).Int("linked_orders", len(saved.OrderIDs)).Msg("Coupon saved")
	return saved, nil
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return apperror.NotFound(ErrCouponNotFound, "Coupon with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete coupon %d: %w", id, err)
	}
	log.Info().Int("coupon_id", id).Msg("Coupon deleted")
	return nil
}

func generateCode() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate coupon code: %w", err)
	}
	raw := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(raw[:generatedCodeLength]), nil
}
