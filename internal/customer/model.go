package customer

// Customer owns its delivery addresses and orders; deleting a customer removes both.
type Customer struct {
	ID        int               `json:"customerId" db:"customer_id"`
	Name      string            `json:"name" db:"customer_name"`
	Email     string            `json:"email" db:"customer_email"`
	Phone     string            `json:"phone" db:"customer_phone"`
	Addresses []DeliveryAddress `json:"addresses" db:"-"`
}

type DeliveryAddress struct {
	ID           int    `json:"addressId" db:"address_id"`
	CustomerID   int    `json:"customerId" db:"customer_id"`
	AddressLine1 string `json:"addressLine1" db:"address_line1"`
	AddressLine2 string `json:"addressLine2" db:"address_line2"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
	Postal       string `json:"postal" db:"postal"`
}
