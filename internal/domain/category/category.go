// Package category models the product catalog's category taxonomy.
package category

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested category does not exist.
	ErrNotFound = errors.New("category not found")
	// ErrNameTaken is returned when creating a category with a name that
	// already exists.
	ErrNameTaken = errors.New("category name already exists")
)

// Category groups products for browsing. Names are unique.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, name, description string) (*Category, error)
	Update(ctx context.Context, id, name, description string) (*Category, error)
	Delete(ctx context.Context, id string) error
}
