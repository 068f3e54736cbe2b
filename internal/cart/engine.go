package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DaudDevs/conect-voucher-market/pkg/logkey"

	"github.com/google/uuid"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderPlacer persists an order built from the current cart lines. The whole
// operation must succeed or fail as a unit.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, orderID, userID, paymentID string, lines []Line) error
}

// Engine owns the cart of a single user. The snapshot store is the source of
// truth; every mutation rewrites the full snapshot.
type Engine struct {
	userID string
	store  SnapshotStore
	lines  []Line
}

func NewEngine(userID string, store SnapshotStore) *Engine {
	return &Engine{userID: userID, store: store}
}

// Hydrate loads the stored snapshot. A missing snapshot means an empty cart.
// Malformed or unreadable snapshots are discarded: the engine logs, resets to
// empty and never returns an error, so a broken snapshot cannot lock a user
// out of their cart.
func (e *Engine) Hydrate(ctx context.Context) {
	data, ok, err := e.store.Load(ctx, e.userID)
	if err != nil {
		slog.Error("cart snapshot load failed, starting empty", slog.String(logkey.UserID, e.userID), slog.String(logkey.ERROR, err.Error()))
		e.lines = nil
		return
	}
	if !ok {
		e.lines = nil
		return
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		slog.Error("cart snapshot is malformed, starting empty", slog.String(logkey.UserID, e.userID), slog.String(logkey.ERROR, err.Error()))
		e.lines = nil
		return
	}
	e.lines = lines
}

// Lines returns a copy of the current cart lines in order.
func (e *Engine) Lines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Total is the discount-aware sum over all lines.
func (e *Engine) Total() int64 {
	return Total(e.lines)
}

// AddLine appends a line, or merges quantities when the id is already present.
func (e *Engine) AddLine(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		return nil
	}
	for i := range e.lines {
		if e.lines[i].ID == line.ID {
			e.lines[i].Quantity += line.Quantity
			return e.persist(ctx)
		}
	}
	e.lines = append(e.lines, line)
	return e.persist(ctx)
}

// SetQuantity replaces the quantity of the matching line. Requests below 1 and
// unknown ids are no-ops.
func (e *Engine) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	for i := range e.lines {
		if e.lines[i].ID == id {
			e.lines[i].Quantity = quantity
			return e.persist(ctx)
		}
	}
	return nil
}

// RemoveLine drops the matching line. An unknown id is a no-op.
func (e *Engine) RemoveLine(ctx context.Context, id string) error {
	kept := e.lines[:0]
	removed := false
	for _, l := range e.lines {
		if l.ID == id {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return nil
	}
	e.lines = kept
	return e.persist(ctx)
}

// Clear empties the cart and persists the empty snapshot.
func (e *Engine) Clear(ctx context.Context) error {
	e.lines = nil
	return e.persist(ctx)
}

// PlaceOrder persists an order for the current lines under a fresh order id.
// On any failure the cart is left untouched and the error is surfaced once.
// On success the cart is cleared; a failure to persist the cleared snapshot is
// logged but does not undo the placed order.
func (e *Engine) PlaceOrder(ctx context.Context, placer OrderPlacer, paymentID string) (string, error) {
	if len(e.lines) == 0 {
		return "", ErrEmptyCart
	}

	orderID := uuid.NewString()
	if err := placer.CreateOrder(ctx, orderID, e.userID, paymentID, e.Lines()); err != nil {
		return "", fmt.Errorf("creating order: %w", err)
	}

	if err := e.Clear(ctx); err != nil {
		slog.Error("clearing cart after order", slog.String(logkey.UserID, e.userID),
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
	}
	return orderID, nil
}

func (e *Engine) persist(ctx context.Context) error {
	data, err := json.Marshal(e.lines)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}
	if err := e.store.Save(ctx, e.userID, data); err != nil {
		return fmt.Errorf("saving cart snapshot: %w", err)
	}
	return nil
}
