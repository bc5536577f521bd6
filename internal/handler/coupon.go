package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
)

type createCouponRequest struct {
	Code      string          `json:"code" binding:"required"`
	Discount  decimal.Decimal `json:"discount" binding:"required"`
	Kind      string          `json:"kind" binding:"required"`
	ValidFrom time.Time       `json:"valid_from" binding:"required"`
	ValidTo   time.Time       `json:"valid_to" binding:"required"`
	MaxUses   int             `json:"max_uses"`
	ClientID  *string         `json:"client_id"`
}

type couponResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Discount    string    `json:"discount"`
	Kind        string    `json:"kind"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	MaxUses     int       `json:"max_uses"`
	CurrentUses int       `json:"current_uses"`
	ClientID    *string   `json:"client_id,omitempty"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:          c.ID,
		Code:        c.Code,
		Discount:    c.Discount.String(),
		Kind:        string(c.Kind),
		ValidFrom:   c.ValidFrom,
		ValidTo:     c.ValidTo,
		MaxUses:     c.MaxUses,
		CurrentUses: c.CurrentUses,
		ClientID:    c.ClientID,
	}
}

// ListCoupons returns all coupons. Admin only.
func (h *Handler) ListCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errResp("could not list coupons"))
		return
	}
	out := make([]couponResponse, len(coupons))
	for i := range coupons {
		out[i] = toCouponResponse(&coupons[i])
	}
	c.JSON(http.StatusOK, out)
}

// CreateCoupon adds a coupon. Admin only.
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req createCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}

	kind := coupon.Kind(req.Kind)
	if kind != coupon.KindPercentage && kind != coupon.KindFixed {
		c.JSON(http.StatusBadRequest, errResp("kind must be percentage or fixed"))
		return
	}
	if req.ValidFrom.After(req.ValidTo) {
		c.JSON(http.StatusBadRequest, errResp("valid_from must not be after valid_to"))
		return
	}
	if !req.Discount.IsPositive() {
		c.JSON(http.StatusBadRequest, errResp("discount must be positive"))
		return
	}
	if req.MaxUses <= 0 {
		req.MaxUses = 1
	}

	created, err := h.coupons.Create(c.Request.Context(), coupon.CreateParams{
		Code:      req.Code,
		Discount:  req.Discount,
		Kind:      kind,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
		MaxUses:   req.MaxUses,
		ClientID:  req.ClientID,
	})
	if err != nil {
		if errors.Is(err, coupon.ErrCodeTaken) {
			c.JSON(http.StatusConflict, errResp("coupon code already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not create coupon"))
		return
	}
	c.JSON(http.StatusCreated, toCouponResponse(created))
}

// DeleteCoupon removes a coupon. Admin only.
func (h *Handler) DeleteCoupon(c *gin.Context) {
	if err := h.coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("coupon not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not delete coupon"))
		return
	}
	c.Status(http.StatusNoContent)
}
