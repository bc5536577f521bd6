package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks an order's lifecycle. Orders start pending and move to paid
// then shipped, or are cancelled while still pending. Shipped and cancelled
// are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusShipped
	}
	return false
}

// Order is a priced, committed customer order. All amounts are whole pesos.
// Everything except Status is immutable after checkout.
type Order struct {
	ID              string
	ClientID        *string
	Subtotal        decimal.Decimal
	DiscountApplied decimal.Decimal
	Total           decimal.Decimal
	Status          Status
	ShippingAddress string
	CouponID        *string
	PaymentMethod   string
	CreatedAt       time.Time
}

// Detail is one line of an order. UnitPrice is the effective price frozen at
// checkout; it is never recomputed from the product afterwards.
type Detail struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Repository defines persistence operations for orders.
//
// Checkout must persist the order and its details, decrement each product's
// stock, and increment the coupon's usage counter (when CouponID is set) in a
// single transaction. The stock and coupon updates are conditional: when a
// guard fails, Checkout returns the matching domain error
// (InsufficientStockError, coupon.ErrExhausted, ProductNotFoundError) and no
// change survives.
type Repository interface {
	Checkout(ctx context.Context, o *Order, details []Detail) error
	GetByID(ctx context.Context, id string) (*Order, []Detail, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}
