// Package client handles customer accounts. Password handling is thin glue
// over bcrypt; there is no session machinery beyond the login check.
package client

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested client does not exist.
	ErrNotFound = errors.New("client not found")
	// ErrEmailTaken is returned when registering with an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Client is a registered customer.
type Client struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Subscribe    bool
	Admin        bool
	Phone        string
	CreatedAt    time.Time
}

// Repository defines persistence operations for clients.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByEmail(ctx context.Context, email string) (*Client, error)
}
