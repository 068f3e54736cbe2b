package payment

import (
	"context"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"
)

// InitiationRequest is what the initiation collaborator receives. Card fields
// collected by the checkout form are deliberately absent: only cart items and
// the user id ever leave the client.
type InitiationRequest struct {
	Items  []cart.Line `json:"items"`
	UserID string      `json:"userId"`
}

type InitiationResult struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	QRISURL   string `json:"qrisUrl,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Initiator creates a payment and hands back a scannable QRIS reference.
type Initiator interface {
	CreatePayment(ctx context.Context, req InitiationRequest) (InitiationResult, error)
}
