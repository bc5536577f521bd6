package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carostraub/InsomniaTiendita/internal/domain/category"
)

const (
	listCategoriesSQL   = `SELECT id, name, description FROM categories ORDER BY name`
	getCategoryByIDSQL  = `SELECT id, name, description FROM categories WHERE id = $1`
	insertCategorySQL   = `INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`
	updateCategorySQL   = `UPDATE categories SET name = $2, description = $3 WHERE id = $1`
	deleteCategorySQL   = `DELETE FROM categories WHERE id = $1`
	uniqueViolationCode = "23505"
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetByID returns a single category.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %q", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get category %q", id)
	}
	return &c, nil
}

// Create inserts a new category. Duplicate names map to ErrNameTaken.
func (r *CategoryRepository) Create(ctx context.Context, name, description string) (*category.Category, error) {
	c := category.Category{ID: uuid.New().String(), Name: name, Description: description}
	if _, err := r.pool.Exec(ctx, insertCategorySQL, c.ID, c.Name, c.Description); err != nil {
		if isUniqueViolation(err) {
			return nil, category.ErrNameTaken
		}
		return nil, errors.Wrapf(err, "create category %q", name)
	}
	return &c, nil
}

// Update renames a category.
func (r *CategoryRepository) Update(ctx context.Context, id, name, description string) (*category.Category, error) {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, id, name, description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, category.ErrNameTaken
		}
		return nil, errors.Wrapf(err, "update category %q", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, category.ErrNotFound
	}
	return &category.Category{ID: id, Name: name, Description: description}, nil
}

// Delete removes a category and its product links.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete category %q", id)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
