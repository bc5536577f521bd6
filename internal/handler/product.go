package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carostraub/InsomniaTiendita/internal/domain/product"
	"github.com/carostraub/InsomniaTiendita/pkg/clp"
)

// productResponse is the display shape of a catalog product. Peso amounts are
// formatted strings ("12.990"); both the list price and the effective price
// are included so the storefront shows the strikethrough pair.
type productResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	OriginalPrice   string     `json:"original_price"`
	CurrentPrice    string     `json:"current_price"`
	DiscountPercent *string    `json:"discount_percent,omitempty"`
	DiscountEnds    *time.Time `json:"discount_ends,omitempty"`
	OnSale          bool       `json:"on_sale"`
	Stock           int        `json:"stock"`
	ImageURL        string     `json:"image_url"`
	Categories      []string   `json:"categories"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (h *Handler) toProductResponse(p *product.Product) productResponse {
	now := h.now()
	resp := productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		OriginalPrice: clp.Format(p.Price),
		CurrentPrice:  clp.Format(p.EffectivePrice(now)),
		DiscountEnds:  p.DiscountExpiration,
		OnSale:        p.DiscountActive(now),
		Stock:         p.Stock,
		ImageURL:      p.ImageURL,
		Categories:    p.Categories,
		CreatedAt:     p.CreatedAt,
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	if resp.OnSale {
		d := p.Discount.Round(2).String()
		resp.DiscountPercent = &d
	}
	return resp
}

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errResp("could not list products"))
		return
	}

	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = h.toProductResponse(&products[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not get product"))
		return
	}
	c.JSON(http.StatusOK, h.toProductResponse(p))
}

type createProductRequest struct {
	Name               string          `json:"name" binding:"required"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price" binding:"required"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountExpiration *time.Time      `json:"discount_expiration"`
	Stock              int             `json:"stock"`
	ImageURL           string          `json:"image_url"`
	CategoryIDs        []string        `json:"category_ids"`
}

// CreateProduct adds a product to the catalog. Admin only.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 || !validDiscountPercent(req.Discount) {
		c.JSON(http.StatusBadRequest, errResp("price and stock must be non-negative, discount in [0,100]"))
		return
	}

	p, err := h.products.Create(c.Request.Context(), product.CreateParams{
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		Discount:           req.Discount,
		DiscountExpiration: req.DiscountExpiration,
		Stock:              req.Stock,
		ImageURL:           req.ImageURL,
		CategoryIDs:        req.CategoryIDs,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errResp("could not create product"))
		return
	}
	c.JSON(http.StatusCreated, h.toProductResponse(p))
}

type updateProductRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	Discount           *decimal.Decimal `json:"discount"`
	DiscountExpiration *time.Time       `json:"discount_expiration"`
	Stock              *int             `json:"stock"`
	ImageURL           *string          `json:"image_url"`
	CategoryIDs        []string         `json:"category_ids"`
}

// UpdateProduct modifies catalog fields of a product. Admin only.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResp(err.Error()))
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, errResp("price must be non-negative"))
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		c.JSON(http.StatusBadRequest, errResp("stock must be non-negative"))
		return
	}
	if req.Discount != nil && !validDiscountPercent(*req.Discount) {
		c.JSON(http.StatusBadRequest, errResp("discount must be in [0,100]"))
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("id"), product.UpdateParams{
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		Discount:           req.Discount,
		DiscountExpiration: req.DiscountExpiration,
		Stock:              req.Stock,
		ImageURL:           req.ImageURL,
		CategoryIDs:        req.CategoryIDs,
	})
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not update product"))
		return
	}
	c.JSON(http.StatusOK, h.toProductResponse(p))
}

// DeleteProduct removes a product. Admin only.
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, errResp("product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errResp("could not delete product"))
		return
	}
	c.Status(http.StatusNoContent)
}

func validDiscountPercent(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}
