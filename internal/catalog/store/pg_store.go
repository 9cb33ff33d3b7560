package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/storefront/internal/catalog"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text AS id, name, description, price::float8 AS price, old_price::float8 AS old_price,
	image, category, featured, "new", sale, rating::float8 AS rating, review_count, created_at`

const (
	findAllQuery  = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	findByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	existsQuery   = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	createQuery   = `INSERT INTO products (name, description, price, old_price, image, category, featured, "new", sale, rating, review_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING ` + productColumns
	updateQuery = `UPDATE products SET name = $2, description = $3, price = $4, old_price = $5, image = $6, category = $7,
	featured = $8, "new" = $9, sale = $10, rating = $11, review_count = $12
	WHERE id = $1
	RETURNING ` + productColumns
	deleteQuery = `DELETE FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

var _ ProductStore = (*PgStore)(nil)

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindAll retrieves all products, newest first.
func (p *PgStore) FindAll(ctx context.Context) ([]catalog.Row, error) {
	rows, err := p.db.Query(ctx, findAllQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[catalog.Row])
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	if products == nil {
		products = []catalog.Row{}
	}
	return products, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id string) (*catalog.Row, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, serrors.ErrProductNotFound
	}
	rows, err := p.db.Query(ctx, findByIDQuery, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return collectOne(rows, "find product by ID")
}

// Create adds a new product.
func (p *PgStore) Create(ctx context.Context, in catalog.Input) (*catalog.Row, error) {
	rows, err := p.db.Query(ctx, createQuery,
		in.Name, in.Description, in.Price, in.OldPrice, in.Image, in.Category,
		in.Featured, in.New, in.Sale, in.Rating, in.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return collectOne(rows, "create product")
}

// Update modifies an existing product's details.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, id string, in catalog.Input) (*catalog.Row, error) {
	uid, err := p.mustExist(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.Query(ctx, updateQuery, uid,
		in.Name, in.Description, in.Price, in.OldPrice, in.Image, in.Category,
		in.Featured, in.New, in.Sale, in.Rating, in.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return collectOne(rows, "update product")
}

// DeleteByID removes a product by its unique identifier and re-queries to confirm the row is gone.
func (p *PgStore) DeleteByID(ctx context.Context, id string) error {
	uid, err := p.mustExist(ctx, id)
	if err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx, deleteQuery, uid)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	var exists bool
	if err := p.db.QueryRow(ctx, existsQuery, uid).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify product deletion: %w", err)
	}
	if exists {
		return serrors.ErrDeleteNotVerified
	}
	if tag.RowsAffected() == 0 {
		// removed concurrently by someone else
		return serrors.ErrProductNotFound
	}
	return nil
}

func (p *PgStore) mustExist(ctx context.Context, id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, serrors.ErrProductNotFound
	}
	var exists bool
	if err := p.db.QueryRow(ctx, existsQuery, uid).Scan(&exists); err != nil {
		return uuid.Nil, fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return uuid.Nil, serrors.ErrProductNotFound
	}
	return uid, nil
}

func collectOne(rows pgx.Rows, op string) (*catalog.Row, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[catalog.Row])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &row, nil
}
