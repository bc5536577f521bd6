// Package handler binds the domain services to the REST API.
package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carostraub/InsomniaTiendita/internal/domain/category"
	"github.com/carostraub/InsomniaTiendita/internal/domain/client"
	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/order"
	"github.com/carostraub/InsomniaTiendita/internal/domain/product"
)

// Handler holds the domain dependencies for all REST endpoints.
type Handler struct {
	products   product.Repository
	categories category.Repository
	coupons    coupon.Repository
	clients    *client.Service
	orders     *order.Service
	now        func() time.Time
}

// New constructs a Handler.
func New(
	products product.Repository,
	categories category.Repository,
	coupons coupon.Repository,
	clients *client.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		products:   products,
		categories: categories,
		coupons:    coupons,
		clients:    clients,
		orders:     orders,
		now:        time.Now,
	}
}

// WithClock overrides the handler's time source. Used in tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Register mounts all API routes on the given group. adminGuard wraps the
// catalog, coupon, and order-status mutations.
func (h *Handler) Register(api *gin.RouterGroup, adminGuard gin.HandlerFunc) {
	api.POST("/register", h.RegisterClient)
	api.POST("/login", h.Login)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.POST("/products", adminGuard, h.CreateProduct)
	api.PUT("/products/:id", adminGuard, h.UpdateProduct)
	api.DELETE("/products/:id", adminGuard, h.DeleteProduct)

	api.GET("/categories", h.ListCategories)
	api.POST("/categories", adminGuard, h.CreateCategory)
	api.PUT("/categories/:id", adminGuard, h.UpdateCategory)
	api.DELETE("/categories/:id", adminGuard, h.DeleteCategory)

	api.GET("/coupons", adminGuard, h.ListCoupons)
	api.POST("/coupons", adminGuard, h.CreateCoupon)
	api.DELETE("/coupons/:id", adminGuard, h.DeleteCoupon)

	api.POST("/orders", h.PlaceOrder)
	api.GET("/orders/:id", h.GetOrder)
	api.GET("/clients/:id/orders", h.ListClientOrders)
	api.PATCH("/orders/:id/status", adminGuard, h.UpdateOrderStatus)
}

type errorResponse struct {
	Error string `json:"error"`
}

func errResp(msg string) errorResponse {
	return errorResponse{Error: msg}
}
