package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage reduces the order subtotal by a percentage.
	KindPercentage Kind = "percentage"
	// KindFixed reduces the order subtotal by a fixed peso amount, capped
	// at the subtotal.
	KindFixed Kind = "fixed"
)

var (
	// ErrNotFound is returned when no coupon matches a code, or when the
	// coupon belongs to a different client than the caller.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when the current time falls outside the
	// coupon's validity window.
	ErrExpired = errors.New("coupon expired")
	// ErrExhausted is returned when a coupon has reached its maximum
	// number of redemptions.
	ErrExhausted = errors.New("coupon usage limit reached")
	// ErrCodeTaken is returned when creating a coupon with a code that
	// already exists.
	ErrCodeTaken = errors.New("coupon code already exists")
)

// Coupon entitles its holder to a discount on an order total. The validity
// window is mandatory on both ends. A nil ClientID makes the coupon global;
// otherwise only the owning client may redeem it.
type Coupon struct {
	ID          string
	Code        string
	Discount    decimal.Decimal
	Kind        Kind
	ValidFrom   time.Time
	ValidTo     time.Time
	MaxUses     int
	CurrentUses int
	ClientID    *string
}

// CreateParams holds the fields for a new coupon.
type CreateParams struct {
	Code      string
	Discount  decimal.Decimal
	Kind      Kind
	ValidFrom time.Time
	ValidTo   time.Time
	MaxUses   int
	ClientID  *string
}

// Repository provides lookup and administration of coupons. Redemption
// counting is not part of this interface: current_uses is incremented inside
// the order checkout transaction, never during validation.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, params CreateParams) (*Coupon, error)
	Delete(ctx context.Context, id string) error
}
