package products

import "time"

// Product is a purchasable WiFi voucher.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Duration    string    `json:"duration"`
	IsPopular   bool      `json:"is_popular"`
	Discount    int       `json:"discount"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows a product listing. Zero values mean "no constraint";
// Limit defaults to 10 when unset.
type Filter struct {
	Name         string
	CategorySlug string
	PopularOnly  bool
	Limit        int
	Offset       int
}
