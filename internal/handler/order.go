package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/order"
	"github.com/carostraub/InsomniaTiendita/pkg/clp"
)

type placeOrderRequest struct {
	ClientID        string             `json:"client_id"`
	Items           []orderItemRequest `json:"items" binding:"required"`
	CouponCode      string             `json:"coupon_code"`
	ShippingAddress string             `json:"shipping_address" binding:"required"`
	PaymentMethod   string             `json:"payment_method"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type orderDetailResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderResponse struct {
	ID              string                `json:"id"`
	ClientID        *string               `json:"client_id,omitempty"`
	Subtotal        string                `json:"subtotal"`
	DiscountApplied string                `json:"discount_applied"`
	Total           string                `json:"total"`
	Status          string                `json:"status"`
	ShippingAddress string                `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	CreatedAt       time.Time             `json:"created_at"`
	Details         []orderDetailResponse `json:"details"`
}

func toOrderResponse(o *order.Order, details []order.Detail) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		ClientID:        o.ClientID,
		Subtotal:        clp.Format(o.Subtotal),
		DiscountApplied: clp.Format(o.DiscountApplied),
		Total:           clp.Format(o.Total),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		Details:         make([]orderDetailResponse, len(details)),
	}
	for i, d := range details {
		resp.Details[i] = orderDetailResponse{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: clp.Format(d.UnitPrice),
		}
	}
	return resp
}

// PlaceOrder prices and commits a new order.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	items := make([]order.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.LineItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), order.PlaceOrderRequest{
		ClientID:        req.ClientID,
		Items:           items,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		status, msg := mapOrderError(err)
		c.JSON(status, errResp(msg))
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(result.Order, result.Details))
}

// mapOrderError converts pricing engine errors to HTTP responses. Domain
// rejections keep their message; anything else is a generic 500.
func mapOrderError(err error) (int, string) {
	var (
		iqErr  *order.InvalidQuantityError
		pnfErr *order.ProductNotFoundError
		isErr  *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrShippingAddressRequired):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &iqErr):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &pnfErr),
		errors.As(err, &isErr),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrExhausted):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "could not place order"
}

// GetOrder returns an order with its details.
func (h *Handler) GetOrder(c *gin.Context) {
	o, details, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("order not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not get order"))
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o, details))
}

// ListClientOrders returns a page of a client's orders.
func (h *Handler) ListClientOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orders.ListByClient(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errResp("could not list orders"))
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i], nil)
	}
	c.JSON(http.StatusOK, out)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order through its lifecycle. Admin only.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	to := order.Status(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, errResp("unknown status "+req.Status))
		return
	}

	if err := h.orders.Transition(c.Request.Context(), c.Param("id"), to); err != nil {
		var itErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrNotFound):
			c.JSON(http.StatusNotFound, errResp("order not found"))
		case errors.As(err, &itErr):
			c.JSON(http.StatusConflict, errResp(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, errResp("could not update status"))
		}
		return
	}
	c.Status(http.StatusNoContent)
}
