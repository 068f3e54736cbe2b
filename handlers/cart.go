package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DaudDevs/conect-voucher-market/internal/cart"
	"github.com/DaudDevs/conect-voucher-market/pkg/ctxmanage"
	"github.com/DaudDevs/conect-voucher-market/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// engineFor hydrates a cart engine for the authenticated user. Hydration
// never fails: a broken snapshot just means an empty cart.
func (h *Handler) engineFor(c *gin.Context, userID string) *cart.Engine {
	e := cart.NewEngine(userID, h.cartStore)
	e.Hydrate(c.Request.Context())
	return e
}

func cartResponse(e *cart.Engine) gin.H {
	return gin.H{"items": e.Lines(), "total": e.Total()}
}

func (h *Handler) GetCart(c *gin.Context) {
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	e := h.engineFor(c, claims.Subject)
	c.JSON(http.StatusOK, cartResponse(e))
}

func (h *Handler) AddCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if request.ProductID == "" || request.Quantity < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product ID and a quantity of at least 1 are required"})
		return
	}

	product, err := h.p.GetProductByID(c.Request.Context(), request.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("error fetching product for cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, request.ProductID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	e := h.engineFor(c, claims.Subject)
	err = e.AddLine(c.Request.Context(), cart.Line{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Discount: product.Discount,
		Quantity: request.Quantity,
		Duration: product.Duration,
	})
	if err != nil {
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product to cart"})
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.ProductID, product.ID), slog.String(logkey.UserID, claims.Subject))
	c.JSON(http.StatusOK, cartResponse(e))
}

func (h *Handler) UpdateCartItemQuantity(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Quantities below 1 are rejected as a no-op: the cart keeps its
	// current state and the response reflects that.
	e := h.engineFor(c, claims.Subject)
	if err := e.SetQuantity(c.Request.Context(), c.Param("id"), request.Quantity); err != nil {
		slog.Error("error updating cart quantity", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, cartResponse(e))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFromRequest(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	e := h.engineFor(c, claims.Subject)
	if err := e.RemoveLine(c.Request.Context(), c.Param("id")); err != nil {
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, cartResponse(e))
}
