package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const (
	createOrderQuery = `INSERT INTO orders (id, number, name, email, address, items, total, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)`
	findByNumberQuery = `SELECT id, number, name, email, address, items, total::text, status, created_at
	FROM orders WHERE number = $1`
)

type PgStore struct {
	db *pgxpool.Pool
}

var _ OrderStore = (*PgStore)(nil)

func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	_, err = p.db.Exec(ctx, createOrderQuery,
		o.ID, o.Number, o.Name, o.Email, o.Address, items, o.Total.String(), o.Status, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (p *PgStore) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	var (
		o     order.Order
		items []byte
		total string
	)
	err := p.db.QueryRow(ctx, findByNumberQuery, number).
		Scan(&o.ID, &o.Number, &o.Name, &o.Email, &o.Address, &items, &total, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to decode order total: %w", err)
	}
	return &o, nil
}
