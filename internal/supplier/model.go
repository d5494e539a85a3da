package supplier

import "time"

type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Products  string    `json:"products"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewSupplierInput struct {
	Name     string
	Contact  string
	Phone    string
	Email    string
	Products string
}
