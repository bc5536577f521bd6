package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carostraub/InsomniaTiendita/internal/domain/product"
)

const (
	productColumns = `p.id, p.name, p.description, p.price, p.discount, p.discount_expiration,
		p.stock, p.image_url, p.created_at,
		COALESCE((SELECT array_agg(pc.category_id) FROM product_categories pc WHERE pc.product_id = p.id), '{}')`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products p ORDER BY p.created_at DESC, p.id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1)`

	insertProductSQL = `INSERT INTO products (id, name, description, price, discount, discount_expiration, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateProductSQL = `UPDATE products SET
		name = COALESCE($2, name),
		description = COALESCE($3, description),
		price = COALESCE($4, price),
		discount = COALESCE($5, discount),
		discount_expiration = COALESCE($6, discount_expiration),
		stock = COALESCE($7, stock),
		image_url = COALESCE($8, image_url)
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	clearProductCategoriesSQL  = `DELETE FROM product_categories WHERE product_id = $1`
	insertProductCategorySQL   = `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product and its category links.
func (r *ProductRepository) Create(ctx context.Context, params product.CreateParams) (*product.Product, error) {
	id := uuid.New().String()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertProductSQL,
		id, params.Name, params.Description, params.Price, params.Discount,
		params.DiscountExpiration, params.Stock, params.ImageURL,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}

	for _, catID := range params.CategoryIDs {
		if _, err := tx.Exec(ctx, insertProductCategorySQL, id, catID); err != nil {
			return nil, errors.Wrapf(err, "link category %q", catID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return r.GetByID(ctx, id)
}

// Update applies the non-nil fields of params to an existing product. A
// non-nil CategoryIDs replaces the category links.
func (r *ProductRepository) Update(ctx context.Context, id string, params product.UpdateParams) (*product.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateProductSQL,
		id, params.Name, params.Description, params.Price, params.Discount,
		params.DiscountExpiration, params.Stock, params.ImageURL,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "update product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, product.ErrNotFound
	}

	if params.CategoryIDs != nil {
		if _, err := tx.Exec(ctx, clearProductCategoriesSQL, id); err != nil {
			return nil, errors.Wrap(err, "clear categories")
		}
		for _, catID := range params.CategoryIDs {
			if _, err := tx.Exec(ctx, insertProductCategorySQL, id, catID); err != nil {
				return nil, errors.Wrapf(err, "link category %q", catID)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product. Category links go with it via ON DELETE CASCADE.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p       product.Product
		expires *time.Time
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Discount, &expires,
		&p.Stock, &p.ImageURL, &p.CreatedAt, &p.Categories,
	)
	p.DiscountExpiration = expires
	return p, err
}
