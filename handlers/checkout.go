package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"
	"github.com/DaudDevs/conect-voucher-market/internal/payment"
	"github.com/DaudDevs/conect-voucher-market/pkg/ctxmanage"
	"github.com/DaudDevs/conect-voucher-market/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// sessionFor returns the user's active checkout session, creating one whose
// success callback places the order from the user's cart.
func (h *Handler) sessionFor(userID string) *checkoutSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cs, ok := h.sessions[userID]; ok {
		return cs
	}

	cs := &checkoutSession{}
	cs.Session = payment.NewSession(h.initiator, func(ctx context.Context, paymentID string) error {
		e := cart.NewEngine(userID, h.cartStore)
		e.Hydrate(ctx)
		orderID, err := e.PlaceOrder(ctx, h.o, paymentID)
		if err != nil {
			return err
		}
		cs.mu.Lock()
		cs.orderID = orderID
		cs.mu.Unlock()
		return nil
	})
	h.sessions[userID] = cs
	return cs
}

func (h *Handler) dropSession(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, userID)
}

// SubmitPayment starts the simulated QRIS payment for the current cart.
func (h *Handler) SubmitPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	e := h.engineFor(c, claims.Subject)
	lines := e.Lines()
	if len(lines) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	cs := h.sessionFor(claims.Subject)
	if err := cs.SubmitForm(c.Request.Context(), lines, claims.Subject); err != nil {
		if errors.Is(err, payment.ErrPaymentInProgress) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A payment is already being processed"})
			return
		}
		if errors.Is(err, payment.ErrPaymentPending) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A payment is already awaiting confirmation"})
			return
		}
		slog.Error("payment initiation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": cs.Err()})
		return
	}

	slog.Info("qris payment generated", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusOK, gin.H{
		"payment_id": cs.PaymentID(),
		"qris_url":   cs.QRISURL(),
		"total":      e.Total(),
	})
}

// ConfirmPayment confirms the scanned QRIS payment and places the order.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cs := h.sessionFor(claims.Subject)
	err := cs.ConfirmPayment(c.Request.Context())

	// The session is single-use: whether order placement succeeded or not,
	// the next checkout starts from the form.
	h.dropSession(claims.Subject)

	if err != nil {
		if errors.Is(err, payment.ErrNoActivePayment) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "No payment is pending confirmation"})
			return
		}
		slog.Error("order placement failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order. Please try again."})
		return
	}

	cs.mu.Lock()
	orderID := cs.orderID
	cs.mu.Unlock()

	slog.Info("order placed", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.UserID, claims.Subject), slog.String(logkey.OrderID, orderID))
	c.JSON(http.StatusOK, gin.H{"message": "Order placed successfully", "order_id": orderID})
}

// CancelPayment abandons the pending QRIS payment and returns to the form.
// The session is dropped so abandoned checkouts do not accumulate in the
// per-user map; the next submission starts from a fresh one.
func (h *Handler) CancelPayment(c *gin.Context) {
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cs := h.sessionFor(claims.Subject)
	cs.CancelToForm()
	h.dropSession(claims.Subject)
	c.JSON(http.StatusOK, gin.H{"message": "Payment canceled"})
}
