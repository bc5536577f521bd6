package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carostraub/InsomniaTiendita/internal/domain/client"
)

const (
	insertClientSQL = `INSERT INTO clients (id, name, email, password_hash, subscribe, phone)
		VALUES ($1, $2, $3, $4, $5, $6)`

	clientColumns = `id, name, email, password_hash, subscribe, admin, phone, created_at`

	getClientByIDSQL    = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	getClientByEmailSQL = `SELECT ` + clientColumns + ` FROM clients WHERE email = $1`
)

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository implements client.Repository backed by PostgreSQL.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a ClientRepository that uses the given pool.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Create inserts a new client. Duplicate emails map to ErrEmailTaken.
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	_, err := r.pool.Exec(ctx, insertClientSQL,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Subscribe, c.Phone,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return client.ErrEmailTaken
		}
		return errors.Wrapf(err, "create client %q", c.Email)
	}
	return nil
}

// GetByID returns a client by its identifier.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	return r.get(ctx, getClientByIDSQL, id)
}

// GetByEmail returns a client by email.
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*client.Client, error) {
	return r.get(ctx, getClientByEmailSQL, email)
}

func (r *ClientRepository) get(ctx context.Context, query, arg string) (*client.Client, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "get client")
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanClient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrNotFound
		}
		return nil, errors.Wrap(err, "get client")
	}
	return &c, nil
}

func scanClient(row pgx.CollectableRow) (client.Client, error) {
	var c client.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Subscribe, &c.Admin,
		&c.Phone, &c.CreatedAt,
	)
	return c, err
}
