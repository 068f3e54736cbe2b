package payment

import (
	"context"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"

	"github.com/google/uuid"
)

// qrisAssetURL is the static scannable code served for every simulated
// payment. A real provider would return a per-payment code here.
const qrisAssetURL = "https://cdn.worldvectorlogo.com/logos/qris-1.svg"

// SimulatedQRIS stands in for a real payment provider. It validates the
// request, computes the discount-aware total and fabricates a payment id.
type SimulatedQRIS struct{}

func NewSimulatedQRIS() *SimulatedQRIS {
	return &SimulatedQRIS{}
}

func (s *SimulatedQRIS) CreatePayment(_ context.Context, req InitiationRequest) (InitiationResult, error) {
	if len(req.Items) == 0 {
		return InitiationResult{Success: false, Message: "Invalid items provided"}, nil
	}
	if req.UserID == "" {
		return InitiationResult{Success: false, Message: "Missing user id"}, nil
	}

	return InitiationResult{
		Success:   true,
		PaymentID: uuid.NewString(),
		QRISURL:   qrisAssetURL,
		Total:     cart.Total(req.Items),
		Message:   "QRIS code generated successfully",
	}, nil
}
