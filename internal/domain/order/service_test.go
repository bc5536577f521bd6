package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/product"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ product.CreateParams) (*product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Update(_ context.Context, _ string, _ product.UpdateParams) (*product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Delete(_ context.Context, _ string) error { return nil }

type mockValidator struct {
	coupon *coupon.Coupon
	err    error

	gotCode     string
	gotClientID string
}

func (m *mockValidator) Validate(_ context.Context, code, clientID string) (*coupon.Coupon, error) {
	m.gotCode = code
	m.gotClientID = clientID
	return m.coupon, m.err
}

type mockOrderRepo struct {
	lastOrder   *Order
	lastDetails []Detail
	checkoutErr error
}

func (m *mockOrderRepo) Checkout(_ context.Context, o *Order, details []Detail) error {
	if m.checkoutErr != nil {
		return m.checkoutErr
	}
	m.lastOrder = o
	m.lastDetails = details
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, []Detail, error) {
	if m.lastOrder == nil {
		return nil, nil, ErrNotFound
	}
	return m.lastOrder, m.lastDetails, nil
}

func (m *mockOrderRepo) ListByClient(_ context.Context, _ string, _, _ int) ([]Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _, _ Status) error {
	return nil
}

// --- Helpers ---

func newTestProduct(id string, price string, stock int) product.Product {
	return product.Product{
		ID:    id,
		Name:  "product " + id,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func newTestService(products *mockProductRepo, v *mockValidator, orders *mockOrderRepo) *Service {
	return NewService(products, v, orders).WithClock(func() time.Time { return testNow })
}

func placeReq(items ...LineItem) PlaceOrderRequest {
	return PlaceOrderRequest{Items: items, ShippingAddress: "Av. Providencia 1234, Santiago"}
}

// --- Tests ---

func TestPlaceOrder_Validation(t *testing.T) {
	svc := newTestService(newProductRepo(), &mockValidator{}, &mockOrderRepo{})

	t.Run("empty items", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			ShippingAddress: "somewhere",
		})
		require.ErrorIs(t, err, ErrEmptyItems)
	})

	t.Run("missing shipping address", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			Items:           []LineItem{{ProductID: "p1", Quantity: 1}},
			ShippingAddress: "   ",
		})
		require.ErrorIs(t, err, ErrShippingAddressRequired)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "p1", Quantity: 0}))
		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, "p1", iqErr.ProductID)
	})
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(), &mockValidator{}, orders)

	_, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "missing", Quantity: 1}))

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
	assert.Nil(t, orders.lastOrder, "no order must be created")
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	// Scenario C: quantity 3 exceeds stock 1.
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(newTestProduct("p1", "5000", 1)), &mockValidator{}, orders)

	_, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "p1", Quantity: 3}))

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "p1", isErr.ProductID)
	assert.Equal(t, 3, isErr.Requested)
	assert.Equal(t, 1, isErr.Available)
	assert.Nil(t, orders.lastOrder, "no order must be created")
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(
		newProductRepo(
			newTestProduct("p1", "10000", 10),
			newTestProduct("p2", "25000", 10),
		),
		&mockValidator{}, orders,
	)

	result, err := svc.PlaceOrder(context.Background(), placeReq(
		LineItem{ProductID: "p1", Quantity: 2},
		LineItem{ProductID: "p2", Quantity: 1},
	))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(45000).Equal(result.Order.Total))
	assert.True(t, decimal.NewFromInt(45000).Equal(result.Order.Subtotal))
	assert.True(t, decimal.Zero.Equal(result.Order.DiscountApplied))
	assert.Equal(t, StatusPending, result.Order.Status)
	assert.Nil(t, result.Order.CouponID)
	assert.Equal(t, DefaultPaymentMethod, result.Order.PaymentMethod)
}

func TestPlaceOrder_DiscountedLinesRoundBeforeSummation(t *testing.T) {
	// Scenario A feeding scenario B: 10000 at 20% off prices the line at
	// 8000; two units make a 16000 subtotal; a 10% coupon lands at 14400.
	future := testNow.Add(24 * time.Hour)
	p := newTestProduct("p1", "10000", 10)
	p.Discount = decimal.NewFromInt(20)
	p.DiscountExpiration = &future

	v := &mockValidator{coupon: &coupon.Coupon{
		ID:       "c1",
		Code:     "SAVE10",
		Kind:     coupon.KindPercentage,
		Discount: decimal.NewFromInt(10),
	}}
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(p), v, orders)

	req := placeReq(LineItem{ProductID: "p1", Quantity: 2})
	req.CouponCode = "SAVE10"
	result, err := svc.PlaceOrder(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(16000).Equal(result.Order.Subtotal))
	assert.True(t, decimal.NewFromInt(1600).Equal(result.Order.DiscountApplied))
	assert.True(t, decimal.NewFromInt(14400).Equal(result.Order.Total))
	require.NotNil(t, result.Order.CouponID)
	assert.Equal(t, "c1", *result.Order.CouponID)

	// The unit price frozen into the detail is the rounded effective price.
	require.Len(t, result.Details, 1)
	assert.True(t, decimal.NewFromInt(8000).Equal(result.Details[0].UnitPrice))
}

func TestPlaceOrder_CouponRoundsOnlyTheFinalTotal(t *testing.T) {
	// 3201 * 5 = 16005 subtotal; a 10% coupon takes off 1600.5. Rounding the
	// discount first would give 16005 - 1601 = 14404; the total must instead
	// be round(16005 - 1600.5) = round(14404.5) = 14405.
	v := &mockValidator{coupon: &coupon.Coupon{
		ID:       "c1",
		Code:     "DIEZ",
		Kind:     coupon.KindPercentage,
		Discount: decimal.NewFromInt(10),
	}}
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(newTestProduct("p1", "3201", 10)), v, orders)

	req := placeReq(LineItem{ProductID: "p1", Quantity: 5})
	req.CouponCode = "DIEZ"
	result, err := svc.PlaceOrder(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(16005).Equal(result.Order.Subtotal))
	assert.True(t, decimal.NewFromInt(14405).Equal(result.Order.Total), "total = %s", result.Order.Total)
	assert.True(t, decimal.NewFromInt(1600).Equal(result.Order.DiscountApplied))
}

func TestPlaceOrder_LineRoundingHappensPerLine(t *testing.T) {
	// 9995 at 15% off = 8495.75, rounded at the line to 8496. Three units
	// must total 3*8496 = 25488, not round(3*8495.75) = 25487.
	future := testNow.Add(24 * time.Hour)
	p := newTestProduct("p1", "9995", 10)
	p.Discount = decimal.NewFromInt(15)
	p.DiscountExpiration = &future

	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(p), &mockValidator{}, orders)

	result, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "p1", Quantity: 3}))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25488).Equal(result.Order.Total))
}

func TestPlaceOrder_SubtotalMatchesDetails(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(
		newProductRepo(
			newTestProduct("p1", "1990", 10),
			newTestProduct("p2", "12990", 10),
			newTestProduct("p3", "490", 10),
		),
		&mockValidator{}, orders,
	)

	result, err := svc.PlaceOrder(context.Background(), placeReq(
		LineItem{ProductID: "p1", Quantity: 3},
		LineItem{ProductID: "p2", Quantity: 1},
		LineItem{ProductID: "p3", Quantity: 7},
	))
	require.NoError(t, err)

	// Sum over details of quantity*unit_price equals the pre-coupon subtotal.
	sum := decimal.Zero
	for _, d := range result.Details {
		sum = sum.Add(d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}
	assert.True(t, sum.Equal(result.Order.Subtotal))
}

func TestPlaceOrder_FixedCouponClampedAtZero(t *testing.T) {
	v := &mockValidator{coupon: &coupon.Coupon{
		ID:       "c1",
		Code:     "MEGA",
		Kind:     coupon.KindFixed,
		Discount: decimal.NewFromInt(999999),
	}}
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(newTestProduct("p1", "5000", 10)), v, orders)

	req := placeReq(LineItem{ProductID: "p1", Quantity: 1})
	req.CouponCode = "MEGA"
	result, err := svc.PlaceOrder(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(result.Order.Total), "total = %s", result.Order.Total)
	assert.False(t, result.Order.Total.IsNegative())
}

func TestPlaceOrder_CouponErrorsRejectOrder(t *testing.T) {
	// Scenario D: any coupon failure rejects the order and mutates nothing.
	for _, wantErr := range []error{coupon.ErrNotFound, coupon.ErrExpired, coupon.ErrExhausted} {
		t.Run(wantErr.Error(), func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc := newTestService(
				newProductRepo(newTestProduct("p1", "5000", 10)),
				&mockValidator{err: wantErr},
				orders,
			)

			req := placeReq(LineItem{ProductID: "p1", Quantity: 1})
			req.CouponCode = "ANY"
			_, err := svc.PlaceOrder(context.Background(), req)

			require.ErrorIs(t, err, wantErr)
			assert.Nil(t, orders.lastOrder, "no order must be created")
		})
	}
}

func TestPlaceOrder_PassesClientToValidator(t *testing.T) {
	v := &mockValidator{coupon: &coupon.Coupon{
		ID: "c1", Code: "MINE", Kind: coupon.KindFixed, Discount: decimal.NewFromInt(100),
	}}
	svc := newTestService(newProductRepo(newTestProduct("p1", "5000", 10)), v, &mockOrderRepo{})

	req := placeReq(LineItem{ProductID: "p1", Quantity: 1})
	req.ClientID = "client-7"
	req.CouponCode = "MINE"
	_, err := svc.PlaceOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "MINE", v.gotCode)
	assert.Equal(t, "client-7", v.gotClientID)
}

func TestPlaceOrder_CheckoutError(t *testing.T) {
	svc := newTestService(
		newProductRepo(newTestProduct("p1", "5000", 10)),
		&mockValidator{},
		&mockOrderRepo{checkoutErr: errors.New("db write failed")},
	)

	_, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "p1", Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db write failed")
}

func TestPlaceOrder_GuestCheckout(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(newProductRepo(newTestProduct("p1", "5000", 10)), &mockValidator{}, orders)

	result, err := svc.PlaceOrder(context.Background(), placeReq(LineItem{ProductID: "p1", Quantity: 1}))

	require.NoError(t, err)
	assert.Nil(t, result.Order.ClientID)
}

func TestTransition(t *testing.T) {
	newOrderRepo := func(status Status) *mockOrderRepo {
		return &mockOrderRepo{lastOrder: &Order{ID: "o1", Status: status}}
	}

	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, false},
		{StatusShipped, StatusPaid, false},
		{StatusShipped, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			repo := newOrderRepo(tt.from)
			svc := newTestService(newProductRepo(), &mockValidator{}, repo)

			err := svc.Transition(context.Background(), "o1", tt.to)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			var itErr *InvalidTransitionError
			require.ErrorAs(t, err, &itErr)
			assert.Equal(t, tt.from, itErr.From)
			assert.Equal(t, tt.to, itErr.To)
		})
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc := newTestService(newProductRepo(), &mockValidator{}, &mockOrderRepo{})
	err := svc.Transition(context.Background(), "nope", StatusPaid)
	require.ErrorIs(t, err, ErrNotFound)
}
