package coupon

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply computes the peso discount the coupon grants on the given subtotal.
// The result is exact and unrounded; the order total is rounded half-up to
// whole pesos only once, after subtraction. The amount never exceeds the
// subtotal, so applying it can never drive a total negative.
func Apply(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Kind {
	case KindPercentage:
		amount = subtotal.Mul(c.Discount).Div(hundred)
	case KindFixed:
		amount = c.Discount
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}
