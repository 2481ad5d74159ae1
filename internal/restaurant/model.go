package restaurant

type Restaurant struct {
	ID        int        `json:"restaurantId" db:"restaurant_id"`
	Name      string     `json:"name" db:"restaurant_name"`
	Address   string     `json:"address" db:"restaurant_address"`
	Phone     string     `json:"phone" db:"restaurant_phone"`
	MenuItems []MenuItem `json:"menuItems" db:"-"`
}

// MenuItem belongs to exactly one restaurant. Price is stored as NUMERIC(7,2).
type MenuItem struct {
	ID           int     `json:"itemId" db:"item_id"`
	RestaurantID int     `json:"restaurantId" db:"restaurant_id"`
	Name         string  `json:"name" db:"item_name"`
	Description  string  `json:"description" db:"item_description"`
	Price        float64 `json:"price" db:"item_price"`
}
