// Package store provides the remote data gateway for products.
package store

import (
	"context"

	"github.com/abgdnv/storefront/internal/catalog"
)

// ProductStore is the gateway to the product table.
// Ids are opaque strings; a malformed id behaves like a missing row.
type ProductStore interface {
	// FindAll returns every product, most recently created first.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]catalog.Row, error)

	// FindByID retrieves a single product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*catalog.Row, error)

	// Create inserts a product and returns the stored row.
	Create(ctx context.Context, in catalog.Input) (*catalog.Row, error)

	// Update replaces the editable fields of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, in catalog.Input) (*catalog.Row, error)

	// DeleteByID removes a product and verifies that it is gone.
	// Returns ErrProductNotFound if no product exists with the given ID and
	// ErrDeleteNotVerified if the row is still present afterwards.
	DeleteByID(ctx context.Context, id string) error
}
