// Package auth holds the admin API key model. Keys are stored as HMAC-SHA256
// hashes; the raw key never touches the database.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no API key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey identifies a validated admin API key.
type APIKey struct {
	ID      string
	KeyHash string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}
