// Package store persists placed orders.
package store

import (
	"context"
	"errors"

	"github.com/abgdnv/storefront/internal/order"
)

// ErrDuplicateNumber is returned by Create when the order number is taken.
var ErrDuplicateNumber = errors.New("order number already exists")

type OrderStore interface {
	// Create stores a new order.
	// Returns ErrDuplicateNumber if another order already uses its number.
	Create(ctx context.Context, o *order.Order) error

	// FindByNumber retrieves an order by its customer-facing number.
	// Returns ErrOrderNotFound if no order has that number.
	FindByNumber(ctx context.Context, number string) (*order.Order, error)
}
