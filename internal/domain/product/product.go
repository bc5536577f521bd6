package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carostraub/InsomniaTiendita/pkg/clp"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Prices are in
// Chilean pesos. Discount is a percentage in [0, 100]; a discount is active
// while it is positive and DiscountExpiration (if set) is still in the future.
type Product struct {
	ID                 string
	Name               string
	Description        string
	Price              decimal.Decimal
	Discount           decimal.Decimal
	DiscountExpiration *time.Time
	Stock              int
	ImageURL           string
	Categories         []string
	CreatedAt          time.Time
}

var hundred = decimal.NewFromInt(100)

// DiscountActive reports whether the product's discount applies at the given
// instant.
func (p *Product) DiscountActive(asOf time.Time) bool {
	if !p.Discount.IsPositive() {
		return false
	}
	return p.DiscountExpiration == nil || p.DiscountExpiration.After(asOf)
}

// EffectivePrice returns the price a customer pays for one unit at the given
// instant: the list price reduced by any active discount, rounded half-up to
// whole pesos. This is the single pricing source for both catalog display and
// order totals, so the shown price and the charged price never diverge.
func (p *Product) EffectivePrice(asOf time.Time) decimal.Decimal {
	if !p.DiscountActive(asOf) {
		return clp.Round(p.Price)
	}
	factor := decimal.NewFromInt(1).Sub(p.Discount.Div(hundred))
	return clp.Round(p.Price.Mul(factor))
}

// CreateParams holds the fields for a new catalog product.
type CreateParams struct {
	Name               string
	Description        string
	Price              decimal.Decimal
	Discount           decimal.Decimal
	DiscountExpiration *time.Time
	Stock              int
	ImageURL           string
	CategoryIDs        []string
}

// UpdateParams holds the mutable fields of an existing product. Nil fields
// are left unchanged; a non-nil CategoryIDs replaces the category set.
type UpdateParams struct {
	Name               *string
	Description        *string
	Price              *decimal.Decimal
	Discount           *decimal.Decimal
	DiscountExpiration *time.Time
	Stock              *int
	ImageURL           *string
	CategoryIDs        []string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, params CreateParams) (*Product, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Product, error)
	Delete(ctx context.Context, id string) error
}
