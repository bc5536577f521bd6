package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator resolves a coupon code for a client (empty clientID means guest)
// and checks that it is currently redeemable. Validation is read-only: the
// usage counter is only incremented when the order referencing the coupon
// commits.
type Validator interface {
	Validate(ctx context.Context, code, clientID string) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupons from a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// WithClock overrides the validator's time source. Used in tests.
func (v *RepoValidator) WithClock(now func() time.Time) *RepoValidator {
	v.now = now
	return v
}

// Validate looks up the coupon for the given code and checks ownership,
// temporal validity, and the usage limit.
func (v *RepoValidator) Validate(ctx context.Context, code, clientID string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	// A coupon owned by another client is indistinguishable from a missing
	// one from the caller's point of view.
	if c.ClientID != nil && *c.ClientID != clientID {
		return nil, ErrNotFound
	}

	now := v.now()
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return nil, ErrExpired
	}

	if c.CurrentUses >= c.MaxUses {
		return nil, ErrExhausted
	}

	return c, nil
}
