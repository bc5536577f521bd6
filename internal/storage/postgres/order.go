package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
	"github.com/carostraub/InsomniaTiendita/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, client_id, subtotal, discount_applied, total, status, shipping_address, coupon_id, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOrderDetailSQL = `INSERT INTO order_details (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	// Conditional guards: a zero-row update means the precondition no longer
	// holds and the whole checkout must roll back.
	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	redeemCouponSQL = `UPDATE coupons SET current_uses = current_uses + 1
		WHERE id = $1 AND current_uses < max_uses`

	productStockSQL = `SELECT stock FROM products WHERE id = $1`

	orderColumns = `id, client_id, subtotal, discount_applied, total, status,
		shipping_address, coupon_id, payment_method, created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByClientSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	getOrderDetailsSQL = `SELECT id, order_id, product_id, quantity, unit_price
		FROM order_details WHERE order_id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Checkout persists the order and its details, decrements stock per line, and
// redeems the coupon, all in one transaction. The stock and coupon updates
// carry their preconditions in the WHERE clause, so a concurrent checkout
// that got there first makes the guarded update a no-op and this one rolls
// back with the matching domain error.
func (r *OrderRepository) Checkout(ctx context.Context, o *order.Order, details []order.Detail) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.ClientID, o.Subtotal, o.DiscountApplied, o.Total, string(o.Status),
		o.ShippingAddress, o.CouponID, o.PaymentMethod, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	for _, d := range details {
		_, err := tx.Exec(ctx, insertOrderDetailSQL,
			d.ID, d.OrderID, d.ProductID, d.Quantity, d.UnitPrice,
		)
		if err != nil {
			return errors.Wrapf(err, "insert detail for product %q", d.ProductID)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, d.ProductID, d.Quantity)
		if err != nil {
			return errors.Wrapf(err, "decrement stock for product %q", d.ProductID)
		}
		if tag.RowsAffected() == 0 {
			return r.stockGuardError(ctx, tx, d)
		}
	}

	if o.CouponID != nil {
		tag, err := tx.Exec(ctx, redeemCouponSQL, *o.CouponID)
		if err != nil {
			return errors.Wrapf(err, "redeem coupon %q", *o.CouponID)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrExhausted
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit checkout")
	}
	return nil
}

// stockGuardError distinguishes a vanished product from an oversell when the
// conditional decrement matched no row.
func (r *OrderRepository) stockGuardError(ctx context.Context, tx pgx.Tx, d order.Detail) error {
	var available int
	err := tx.QueryRow(ctx, productStockSQL, d.ProductID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &order.ProductNotFoundError{ProductID: d.ProductID}
	}
	if err != nil {
		return errors.Wrapf(err, "read stock for product %q", d.ProductID)
	}
	return &order.InsufficientStockError{
		ProductID: d.ProductID,
		Requested: d.Quantity,
		Available: available,
	}
}

// GetByID returns an order with its details.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, []order.Detail, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, order.ErrNotFound
		}
		return nil, nil, errors.Wrapf(err, "get order %q", id)
	}

	detailRows, err := r.pool.Query(ctx, getOrderDetailsSQL, id)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "get details for order %q", id)
	}
	details, err := pgx.CollectRows(detailRows, scanOrderDetail)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "get details for order %q", id)
	}
	return &o, details, nil
}

// ListByClient returns a page of a client's orders, newest first.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, listOrdersByClientSQL, clientID, limit, offset)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for client %q", clientID)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus moves an order from one status to another. The previous status
// guards the update; a concurrent transition surfaces as ErrNotFound-style
// conflict via InvalidTransitionError.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(from), string(to))
	if err != nil {
		return errors.Wrapf(err, "update status of order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return &order.InvalidTransitionError{From: from, To: to}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.ClientID, &o.Subtotal, &o.DiscountApplied, &o.Total, &status,
		&o.ShippingAddress, &o.CouponID, &o.PaymentMethod, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderDetail(row pgx.CollectableRow) (order.Detail, error) {
	var d order.Detail
	err := row.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &d.UnitPrice)
	return d, err
}
