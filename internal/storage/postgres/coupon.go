package postgres

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carostraub/InsomniaTiendita/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount, kind, valid_from, valid_to, max_uses, current_uses, client_id`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY valid_to DESC`

	insertCouponSQL = `INSERT INTO coupons (id, code, discount, kind, valid_from, valid_to, max_uses, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive).
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &c, nil
}

// List returns all coupons, soonest-expiring last.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts a new coupon. Codes are stored uppercase; duplicates map to
// ErrCodeTaken.
func (r *CouponRepository) Create(ctx context.Context, params coupon.CreateParams) (*coupon.Coupon, error) {
	c := coupon.Coupon{
		ID:        uuid.New().String(),
		Code:      strings.ToUpper(params.Code),
		Discount:  params.Discount,
		Kind:      params.Kind,
		ValidFrom: params.ValidFrom,
		ValidTo:   params.ValidTo,
		MaxUses:   params.MaxUses,
		ClientID:  params.ClientID,
	}
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		c.ID, c.Code, c.Discount, string(c.Kind), c.ValidFrom, c.ValidTo, c.MaxUses, c.ClientID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, coupon.ErrCodeTaken
		}
		return nil, errors.Wrapf(err, "create coupon %q", params.Code)
	}
	return &c, nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete coupon %q", id)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		kind string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Discount, &kind, &c.ValidFrom, &c.ValidTo,
		&c.MaxUses, &c.CurrentUses, &c.ClientID,
	)
	c.Kind = coupon.Kind(kind)
	return c, err
}
