package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/product"
	"github.com/carostraub/InsomniaTiendita/pkg/clp"
)

// DefaultPaymentMethod tags orders that do not specify one.
const DefaultPaymentMethod = "transferencia"

// LineItem is a (product, quantity) pair in a checkout request.
type LineItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order. ClientID is empty
// for guest checkout.
type PlaceOrderRequest struct {
	ClientID        string
	Items           []LineItem
	CouponCode      string
	ShippingAddress string
	PaymentMethod   string
}

// PlaceOrderResult holds the committed order together with its line details.
type PlaceOrderResult struct {
	Order   *Order
	Details []Detail
}

// Service prices and commits orders. Totals are always computed server-side
// from current catalog and coupon state; nothing price-related is trusted
// from the caller.
type Service struct {
	products product.Repository
	coupons  coupon.Validator
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, coupons coupon.Validator, orders Repository) *Service {
	return &Service{
		products: products,
		coupons:  coupons,
		orders:   orders,
		now:      time.Now,
	}
}

// WithClock overrides the service's time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceOrder validates the requested items against current stock, prices each
// line at the product's effective price, applies an optional coupon, and
// commits the order atomically with the stock decrement and coupon
// redemption. On any error no order is created and no stock or coupon state
// changes.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, ErrShippingAddressRequired
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	now := s.now()
	orderID := uuid.New().String()

	// Price each line at the live effective price, rounded per line before
	// summation. The unit price is frozen into the detail here; later product
	// changes must not affect this order.
	subtotal := decimal.Zero
	details := make([]Detail, len(req.Items))
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if item.Quantity > p.Stock {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Requested: item.Quantity,
				Available: p.Stock,
			}
		}

		unit := p.EffectivePrice(now)
		details[i] = Detail{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  item.Quantity,
			UnitPrice: unit,
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Resolve the coupon after pricing so rejection leaves nothing behind.
	discount := decimal.Zero
	var couponID *string
	if req.CouponCode != "" {
		c, err := s.coupons.Validate(ctx, req.CouponCode, req.ClientID)
		if err != nil {
			return nil, err
		}
		discount = coupon.Apply(c, subtotal)
		couponID = &c.ID
	}

	// The discount stays unrounded until here; the only rounding after the
	// per-line pass happens on the final total. The stored discount figure is
	// derived from the rounded total so the order arithmetic stays consistent.
	total := clp.Round(subtotal.Sub(discount))
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:              orderID,
		Subtotal:        subtotal,
		DiscountApplied: subtotal.Sub(total),
		Total:           total,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		CouponID:        couponID,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = DefaultPaymentMethod
	}
	if req.ClientID != "" {
		clientID := req.ClientID
		o.ClientID = &clientID
	}

	// Checkout re-checks stock and coupon usage with conditional updates in
	// one transaction, so a concurrent order cannot oversell between our read
	// and this commit.
	if err := s.orders.Checkout(ctx, o, details); err != nil {
		return nil, err
	}

	return &PlaceOrderResult{Order: o, Details: details}, nil
}

// Get returns an order with its details.
func (s *Service) Get(ctx context.Context, id string) (*Order, []Detail, error) {
	return s.orders.GetByID(ctx, id)
}

// ListByClient returns a page of a client's orders, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Order, error) {
	return s.orders.ListByClient(ctx, clientID, limit, offset)
}

// Transition moves an order to a new lifecycle status, rejecting moves the
// lifecycle does not allow.
func (s *Service) Transition(ctx context.Context, id string, to Status) error {
	o, _, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !o.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	// The update is guarded by the observed status; a concurrent transition
	// makes it a no-op and the repository reports the conflict.
	return s.orders.UpdateStatus(ctx, id, o.Status, to)
}
