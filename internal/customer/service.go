package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
)

type Service interface {
	FindAll(ctx context.Context) ([]Customer, error)
	FindByID(ctx context.Context, id int) (*Customer, error)
	FindLast(ctx context.Context) (*Customer, error)
	Create(ctx context.Context, c *Customer) (*Customer, error)
	Save(ctx context.Context, c *Customer) (*Customer, error)
	Update(ctx context.Context, id int, patch *Customer) (*Customer, error)
	DeleteByID(ctx context.Context, id int) error

	FindAddressByID(ctx context.Context, id int) (*DeliveryAddress, error)
	FindAddressesByCustomerID(ctx context.Context, customerID int) ([]DeliveryAddress, error)
}

type service struct {
	repo      Repository
	addresses AddressRepository
}

func NewService(repo Repository, addresses AddressRepository) Service {
	return &service{repo: repo, addresses: addresses}
}

func (s *service) FindAll(ctx context.Context) ([]Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find customers: %w", err)
	}
	log.Info().Int("count", len(customers)).Msg("Fetched customers")
	return customers, nil
}

func (s *service) FindByID(ctx context.Context, id int) (*Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			log.Warn().Int("customer_id", id).Msg("Customer not found")
			return nil, apperror.NotFound(ErrCustomerNotFound, "Customer with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find customer by id %d: %w", id, err)
	}
	return c, nil
}

func (s *service) FindLast(ctx context.Context) (*Customer, error) {
	c, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find last customer: %w", err)
	}
	return c, nil
}

// Create assigns synthetic ids to the customer and to each of its addresses, then saves.
func (s *service) Create(ctx context.Context, c *Customer) (*Customer, error) {
	id, err := s.nextCustomerID(ctx)
	if err != nil {
		return nil, err
	}
	c.ID = id

	addresses := c.Addresses
	c.Addresses = nil
	saved, err := s.Save(ctx, c)
	if err != nil {
		return nil, err
	}

	saved.Addresses = make([]DeliveryAddress, 0, len(addresses))
	for _, a := range addresses {
		addressID, err := s.nextAddressID(ctx)
		if err != nil {
			return nil, err
		}
		a.ID = addressID
		a.CustomerID = saved.ID
		if _, err := s.addresses.Save(ctx, &a); err != nil {
			return nil, fmt.Errorf("failed to save address for customer %d: %w", saved.ID, err)
		}
		saved.Addresses = append(saved.Addresses, a)
	}

	log.Info().Int("customer_id", saved.ID).Int("addresses", len(saved.Addresses)).Msg("Customer created")
	return saved, nil
}

func (s *service) Save(ctx context.Context, c *Customer) (*Customer, error) {
	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to save customer %d: %w", c.ID, err)
	}
	log.Info().Int("customer_id", saved.ID).Msg("Customer saved")
	return saved, nil
}

// Update overwrites name, email and phone. Every address in patch must already
// exist; it is rewritten and moved under this customer. Addresses not listed
// stay stored, so the customer is reloaded after the save and returned as
// stored.
func (s *service) Update(ctx context.Context, id int, patch *Customer) (*Customer, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = patch.Name
	c.Email = patch.Email
	c.Phone = patch.Phone

	if len(patch.Addresses) > 0 {
		addresses := make([]DeliveryAddress, 0, len(patch.Addresses))
		for _, p := range patch.Addresses {
			a, err := s.FindAddressByID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			a.AddressLine1 = p.AddressLine1
			a.AddressLine2 = p.AddressLine2
			a.City = p.City
			a.State = p.State
			a.Postal = p.Postal
			addresses = append(addresses, *a)
		}
		c.Addresses = addresses
	}

	if _, err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return apperror.NotFound(ErrCustomerNotFound, "Customer with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}
	log.Info().Int("customer_id", id).Msg("Customer deleted")
	return nil
}

func (s *service) FindAddressByID(ctx context.Context, id int) (*DeliveryAddress, error) {
	a, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAddressNotFound) {
			return nil, apperror.NotFound(ErrAddressNotFound, "Delivery Address with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find address by id %d: %w", id, err)
	}
	return a, nil
}

func (s *service) FindAddressesByCustomerID(ctx context.Context, customerID int) ([]DeliveryAddress, error) {
	addresses, err := s.addresses.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find addresses for customer %d: %w", customerID, err)
	}
	return addresses, nil
}

// nextCustomerID reads the current maximum id; two concurrent callers can get the same value.
func (s *service) nextCustomerID(ctx context.Context) (int, error) {
	last, err := s.repo.FindLast(ctx)
	if errors.Is(err, ErrCustomerNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next customer id: %w", err)
	}
	return last.ID + 1, nil
}

func (s *service) nextAddressID(ctx context.Context) (int, error) {
	last, err := s.addresses.FindLast(ctx)
	if errors.Is(err, ErrAddressNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next address id: %w", err)
	}
	return last.ID + 1, nil
}
