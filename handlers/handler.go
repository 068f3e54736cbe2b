package handlers

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/DaudDevs/conect-voucher-market/internal/auth"
	"github.com/DaudDevs/conect-voucher-market/internal/cart"
	"github.com/DaudDevs/conect-voucher-market/internal/datastore"
	"github.com/DaudDevs/conect-voucher-market/internal/orders"
	"github.com/DaudDevs/conect-voucher-market/internal/payment"
	"github.com/DaudDevs/conect-voucher-market/internal/products"
	"github.com/DaudDevs/conect-voucher-market/internal/users"
	"github.com/DaudDevs/conect-voucher-market/middleware"
	"github.com/DaudDevs/conect-voucher-market/pkg/ctxmanage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	u         *users.Conf
	p         *products.Conf
	o         *orders.Conf
	ds        *datastore.Store
	cartStore cart.SnapshotStore
	initiator payment.Initiator
	a         *auth.Keys
	validate  *validator.Validate

	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

// checkoutSession pairs a payment session with the id of the order it placed,
// filled in by the success callback.
type checkoutSession struct {
	*payment.Session
	mu      sync.Mutex
	orderID string
}

func NewHandler(u *users.Conf, p *products.Conf, o *orders.Conf, ds *datastore.Store,
	cartStore cart.SnapshotStore, initiator payment.Initiator, a *auth.Keys) *Handler {
	return &Handler{
		u:         u,
		p:         p,
		o:         o,
		ds:        ds,
		cartStore: cartStore,
		initiator: initiator,
		a:         a,
		validate:  validator.New(),
		sessions:  map[string]*checkoutSession{},
	}
}

func API(endpointPrefix string, a *auth.Keys, h *Handler) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(a)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/signup", h.Signup)
		v1.POST("/login", h.UserLogin)

		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/categories/:slug", h.GetCategory)
	}

	authed := r.Group(endpointPrefix)
	{
		authed.Use(m.Authentication())

		authed.GET("/cart", m.Authorize(h.GetCart, auth.RoleCustomer, auth.RoleAdmin))
		authed.POST("/cart/items", m.Authorize(h.AddCartItem, auth.RoleCustomer, auth.RoleAdmin))
		authed.PATCH("/cart/items/:id", m.Authorize(h.UpdateCartItemQuantity, auth.RoleCustomer, auth.RoleAdmin))
		authed.DELETE("/cart/items/:id", m.Authorize(h.RemoveCartItem, auth.RoleCustomer, auth.RoleAdmin))

		authed.POST("/checkout/payment", m.Authorize(h.SubmitPayment, auth.RoleCustomer, auth.RoleAdmin))
		authed.POST("/checkout/confirm", m.Authorize(h.ConfirmPayment, auth.RoleCustomer, auth.RoleAdmin))
		authed.POST("/checkout/cancel", m.Authorize(h.CancelPayment, auth.RoleCustomer, auth.RoleAdmin))

		authed.GET("/orders", m.Authorize(h.ListOrders, auth.RoleCustomer, auth.RoleAdmin))
		authed.GET("/orders/:id", m.Authorize(h.GetOrder, auth.RoleCustomer, auth.RoleAdmin))

		authed.GET("/admin/collections", m.Authorize(h.ListCollections, auth.RoleAdmin))
		authed.GET("/admin/data/:collection", m.Authorize(h.AdminList, auth.RoleAdmin))
		authed.GET("/admin/data/:collection/schema", m.Authorize(h.AdminSchema, auth.RoleAdmin))
		authed.POST("/admin/data/:collection", m.Authorize(h.AdminCreate, auth.RoleAdmin))
		authed.PUT("/admin/data/:collection/:id", m.Authorize(h.AdminUpdate, auth.RoleAdmin))
		authed.DELETE("/admin/data/:collection/:id", m.Authorize(h.AdminDelete, auth.RoleAdmin))
	}

	return r
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// claimsFromRequest pulls the authenticated claims out of the request context.
func claimsFromRequest(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}
