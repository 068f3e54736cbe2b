package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"
	"github.com/DaudDevs/conect-voucher-market/internal/stores/kafka"
	"github.com/DaudDevs/conect-voucher-market/pkg/logkey"
)

type Conf struct {
	db *sql.DB
	k  *kafka.Conf
}

// NewConf builds the orders store. The kafka producer is optional: with a nil
// producer order events are simply not emitted.
func NewConf(db *sql.DB, k *kafka.Conf) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db, k: k}, nil
}

// CreateOrder persists the order header and one item row per cart line inside
// a single transaction. Item prices are the effective unit prices at purchase
// time. After commit an order-placed event is produced per line; event
// failures are logged, never surfaced.
func (c *Conf) CreateOrder(ctx context.Context, orderID, userID, paymentID string, lines []cart.Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("no lines to order")
	}

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			INSERT INTO orders (id, user_id, total, payment_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		`
		_, err := tx.ExecContext(ctx, queryOrder, orderID, userID, cart.Total(lines), paymentID, StatusProcessing)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`
		for _, line := range lines {
			_, err := tx.ExecContext(ctx, queryItem, orderID, line.ID, line.Quantity, cart.EffectiveUnitPrice(line))
			if err != nil {
				return fmt.Errorf("inserting order item %s: %w", line.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if c.k != nil {
		go c.produceOrderEvents(orderID, userID, lines)
	}
	return nil
}

func (c *Conf) produceOrderEvents(orderID, userID string, lines []cart.Line) {
	for _, line := range lines {
		jsonData, err := json.Marshal(kafka.OrderPlacedEvent{
			OrderId:   orderID,
			UserId:    userID,
			ProductId: line.ID,
			Quantity:  line.Quantity,
			Price:     cart.EffectiveUnitPrice(line),
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderPlacedEvent", slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			return
		}

		if err := c.k.ProduceMessage(kafka.TopicOrderPlaced, []byte(orderID), jsonData); err != nil {
			slog.Error("failed to produce order event", slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			return
		}
	}
}

// ListOrders returns the user's orders, newest first.
func (c *Conf) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, total, payment_id, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.PaymentID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return out, nil
}

// GetOrder returns one order with its items.
func (c *Conf) GetOrder(ctx context.Context, orderID string) (Order, []Item, error) {
	var o Order
	queryOrder := `
		SELECT id, user_id, total, payment_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, queryOrder, orderID).
		Scan(&o.ID, &o.UserID, &o.Total, &o.PaymentID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, nil, fmt.Errorf("querying order: %w", err)
	}

	queryItems := `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := c.db.QueryContext(ctx, queryItems, orderID)
	if err != nil {
		return Order{}, nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.CreatedAt); err != nil {
			return Order{}, nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, nil, fmt.Errorf("iterating order items: %w", err)
	}
	return o, items, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
