package orders

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// Order represents an order entity in the database
type Order struct {
	ID        string    `json:"id"`         // UUID assigned at placement
	UserID    string    `json:"user_id"`    // UUID of the user placing the order
	Total     int64     `json:"total"`      // Discount-aware total in IDR
	PaymentID string    `json:"payment_id"` // Reference returned by the payment initiation
	Status    string    `json:"status"`     // processing, completed or canceled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is one voucher line of a placed order. Price is the effective unit
// price at the time of purchase, after discount.
type Item struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
