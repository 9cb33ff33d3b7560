package productsync

import (
	"context"
	"fmt"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/catalog/store"
)

// StoreFetcher runs the list query against the gateway and converts rows to products.
type StoreFetcher struct {
	store store.ProductStore
}

func NewStoreFetcher(s store.ProductStore) *StoreFetcher {
	return &StoreFetcher{store: s}
}

func (f *StoreFetcher) Fetch(ctx context.Context) ([]catalog.Product, error) {
	rows, err := f.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return catalog.FromRows(rows), nil
}
