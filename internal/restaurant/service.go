package restaurant

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/customer"
	"github.com/vasiliy-maslov/food-delivery/internal/rating"
)

type ReviewFinder interface {
	FindByRestaurantID(ctx context.Context, restaurantID int) ([]rating.Rating, error)
}

// OrderCustomerFinder returns the customer id of every order placed at a
// restaurant, one entry per order.
type OrderCustomerFinder interface {
	CustomerIDsByRestaurantID(ctx context.Context, restaurantID int) ([]int, error)
}

type AddressFinder interface {
	FindAddressesByCustomerID(ctx context.Context, customerID int) ([]customer.DeliveryAddress, error)
}

type Service interface {
	FindAll(ctx context.Context) ([]Restaurant, error)
	FindByID(ctx context.Context, id int) (*Restaurant, error)
	FindLast(ctx context.Context) (*Restaurant, error)
	Create(ctx context.Context, r *Restaurant) (*Restaurant, error)
	Save(ctx context.Context, r *Restaurant) (*Restaurant, error)
	Update(ctx context.Context, id int, patch *Restaurant) (*Restaurant, error)
	DeleteByID(ctx context.Context, id int) error

	MenuItemsByID(ctx context.Context, id int) ([]MenuItem, error)
	ReviewsByID(ctx context.Context, id int) ([]rating.Rating, error)
	DeliveryAddressesServedByID(ctx context.Context, id int) ([]customer.DeliveryAddress, error)

	FindMenuItemByID(ctx context.Context, itemID int) (*MenuItem, error)
	SaveMenuItem(ctx context.Context, restaurantID int, item *MenuItem) (*MenuItem, error)
	UpdateMenuItem(ctx context.Context, restaurantID, itemID int, patch *MenuItem) (*MenuItem, error)
	DeleteMenuItem(ctx context.Context, restaurantID, itemID int) error
}

type Dependencies struct {
	Reviews   ReviewFinder
	Orders    OrderCustomerFinder
	Addresses AddressFinder
}

type service struct {
	repo      Repository
	menuItems MenuItemRepository
	deps      Dependencies
}

func NewService(repo Repository, menuItems MenuItemRepository, deps Dependencies) Service {
	return &service{repo: repo, menuItems: menuItems, deps: deps}
}

func (s *service) FindAll(ctx context.Context) ([]Restaurant, error) {
	restaurants, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurants: %w", err)
	}
	log.Info().Int("count", len(restaurants)).Msg("Fetched restaurants")
	return restaurants, nil
}

func (s *service) FindByID(ctx context.Context, id int) (*Restaurant, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			log.Warn().Int("restaurant_id", id).Msg("Restaurant not found")
			return nil, apperror.NotFound(ErrRestaurantNotFound, "Restaurant with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to find restaurant by id %d: %w", id, err)
	}
	return r, nil
}

func (s *service) FindLast(ctx context.Context) (*Restaurant, error) {
	r, err := s.repo.FindLast(ctx)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to find last restaurant: %w", err)
	}
	return r, nil
}

// Create numbers the restaurant and its menu items from the current maxima.
func (s *service) Create(ctx context.Context, r *Restaurant) (*Restaurant, error) {
	id, err := s.nextRestaurantID(ctx)
	if err != nil {
		return nil, err
	}
	r.ID = id

	if len(r.MenuItems) > 0 {
		itemID, err := s.nextMenuItemID(ctx)
		if err != nil {
			return nil, err
		}
		for i := range r.MenuItems {
			r.MenuItems[i].ID = itemID + i
			r.MenuItems[i].RestaurantID = id
		}
	} else {
		r.MenuItems = []MenuItem{}
	}

	saved, err := s.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	log.Info().Int("restaurant_id", saved.ID).Int("menu_items", len(saved.MenuItems)).Msg("Restaurant created")
	return saved, nil
}

func (s *service) Save(ctx context.Context, r *Restaurant) (*Restaurant, error) {
	saved, err := s.repo.Save(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to save restaurant %d: %w", r.ID, err)
	}
	log.Info().Int("restaurant_id", saved.ID).Msg("Restaurant saved")
	return saved, nil
}

// Update copies the non-empty fields of patch onto the stored restaurant. When
// patch lists menu items, each must already exist and is overwritten in full.
// Menu items not listed stay attached, so the restaurant is reloaded after the
// save and returned as stored.
func (s *service) Update(ctx context.Context, id int, patch *Restaurant) (*Restaurant, error) {
	r, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != "" {
		r.Name = patch.Name
	}
	if patch.Address != "" {
		r.Address = patch.Address
	}
	if patch.Phone != "" {
		r.Phone = patch.Phone
	}

	if len(patch.MenuItems) > 0 {
		items := make([]MenuItem, 0, len(patch.MenuItems))
		for _, p := range patch.MenuItems {
			item, err := s.FindMenuItemByID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			item.RestaurantID = r.ID
			item.Name = p.Name
			item.Description = p.Description
			item.Price = p.Price
			items = append(items, *item)
		}
		r.MenuItems = items
	}

	if _, err := s.Save(ctx, r); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *service) DeleteByID(ctx context.Context, id int) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return apperror.NotFound(ErrRestaurantNotFound, "Restaurant with ID %d not found", id)
		}
		return fmt.Errorf("failed to delete restaurant %d: %w", id, err)
	}
	log.Info().Int("restaurant_id", id).Msg("Restaurant deleted")
	return nil
}

func (s *service) MenuItemsByID(ctx context.Context, id int) ([]MenuItem, error) {
	r, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.MenuItems, nil
}

func (s *service) ReviewsByID(ctx context.Context, id int) ([]rating.Rating, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	reviews, err := s.deps.Reviews.FindByRestaurantID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews for restaurant %d: %w", id, err)
	}
	return reviews, nil
}

// DeliveryAddressesServedByID walks the restaurant's orders in order and appends
// every address of each order's customer. A customer with several orders
// contributes its addresses once per order.
func (s *service) DeliveryAddressesServedByID(ctx context.Context, id int) ([]customer.DeliveryAddress, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}

	customerIDs, err := s.deps.Orders.CustomerIDsByRestaurantID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for restaurant %d: %w", id, err)
	}

	served := make([]customer.DeliveryAddress, 0)
	for _, customerID := range customerIDs {
		addresses, err := s.deps.Addresses.FindAddressesByCustomerID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		served = append(served, addresses...)
	}
	return served, nil
}

func (s *service) FindMenuItemByID(ctx context.Context, itemID int) (*MenuItem, error) {
	item, err := s.menuItems.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrMenuItemNotFound) {
			return nil, apperror.NotFound(ErrMenuItemNotFound, "Menu Item with ID %d not found", itemID)
		}
		return nil, fmt.Errorf("failed to find menu item by id %d: %w", itemID, err)
	}
	return item, nil
}

func (s *service) SaveMenuItem(ctx context.Context, restaurantID int, item *MenuItem) (*MenuItem, error) {
	r, err := s.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	itemID, err := s.nextMenuItemID(ctx)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	item.RestaurantID = r.ID
	r.MenuItems = append(r.MenuItems, *item)

	if _, err := s.Save(ctx, r); err != nil {
		return nil, err
	}
	log.Info().Int("restaurant_id", r.ID).Int("item_id", item.ID).Msg("Menu item added")
	return item, nil
}

// UpdateMenuItem applies name and description when non-empty and price when non-zero.
func (s *service) UpdateMenuItem(ctx context.Context, restaurantID, itemID int, patch *MenuItem) (*MenuItem, error) {
	if _, err := s.FindByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	item, err := s.menuItemAt(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Name != "" {
		item.Name = patch.Name
	}
	if patch.Description != "" {
		item.Description = patch.Description
	}
	if patch.Price != 0 {
		item.Price = patch.Price
	}

	saved, err := s.menuItems.Save(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to save menu item %d: %w", itemID, err)
	}
	return saved, nil
}

func (s *service) DeleteMenuItem(ctx context.Context, restaurantID, itemID int) error {
	if _, err := s.FindByID(ctx, restaurantID); err != nil {
		return err
	}
	if _, err := s.menuItemAt(ctx, itemID); err != nil {
		return err
	}
	if err := s.menuItems.DeleteByID(ctx, itemID); err != nil {
		if errors.Is(err, ErrMenuItemNotFound) {
			return apperror.NotFound(ErrMenuItemNotFound, "Item not found at ID %d", itemID)
		}
		return fmt.Errorf("failed to delete menu item %d: %w", itemID, err)
	}
	log.Info().Int("restaurant_id", restaurantID).Int("item_id", itemID).Msg("Menu item deleted")
	return nil
}

func (s *service) menuItemAt(ctx context.Context, itemID int) (*MenuItem, error) {
	item, err := s.menuItems.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrMenuItemNotFound) {
			log.Warn().Int("item_id", itemID).Msg("Menu item not found")
			return nil, apperror.NotFound(ErrMenuItemNotFound, "Item not found at ID %d", itemID)
		}
		return nil, fmt.Errorf("failed to find menu item by id %d: %w", itemID, err)
	}
	return item, nil
}

func (s *service) nextRestaurantID(ctx context.Context) (int, error) {
	last, err := s.repo.FindLast(ctx)
	if errors.Is(err, ErrRestaurantNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next restaurant id: %w", err)
	}
	return last.ID + 1, nil
}

func (s *service) nextMenuItemID(ctx context.Context) (int, error) {
	last, err := s.menuItems.FindLast(ctx)
	if errors.Is(err, ErrMenuItemNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute next menu item id: %w", err)
	}
	return last.ID + 1, nil
}
