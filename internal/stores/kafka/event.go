package kafka

import "time"

const TopicOrderPlaced = `order-service.order-placed`

// OrderPlacedEvent is emitted once per order line after an order is persisted.
type OrderPlacedEvent struct {
	OrderId   string    `json:"order_id"`
	UserId    string    `json:"user_id"`
	ProductId string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
