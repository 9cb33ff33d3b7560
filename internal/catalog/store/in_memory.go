package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

type memEntry struct {
	row catalog.Row
	seq uint64
}

// InMemoryStore implements ProductStore using an in-memory map.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[string]memEntry
	seq      uint64
	now      func() time.Time
}

var _ ProductStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory product store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[string]memEntry),
		now:      time.Now,
	}
}

// FindAll returns all products, newest first. Insertion order breaks timestamp ties.
func (s *InMemoryStore) FindAll(_ context.Context) ([]catalog.Row, error) {
	s.mu.RLock()
	entries := make([]memEntry, 0, len(s.products))
	for _, e := range s.products {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].row.CreatedAt.Equal(entries[j].row.CreatedAt) {
			return entries[i].row.CreatedAt.After(entries[j].row.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	rows := make([]catalog.Row, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return rows, nil
}

// FindByID retrieves a product by its ID.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (*catalog.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return nil, serrors.ErrProductNotFound
	}
	row := e.row
	return &row, nil
}

// Create stores a new product with a generated id.
func (s *InMemoryStore) Create(_ context.Context, in catalog.Input) (*catalog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	row := applyInput(catalog.Row{ID: uuid.NewString(), CreatedAt: s.now()}, in)
	s.products[row.ID] = memEntry{row: row, seq: s.seq}
	return &row, nil
}

// Update replaces the editable fields of a stored product.
func (s *InMemoryStore) Update(_ context.Context, id string, in catalog.Input) (*catalog.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, serrors.ErrProductNotFound
	}
	e.row = applyInput(e.row, in)
	s.products[id] = e
	row := e.row
	return &row, nil
}

// DeleteByID removes a product.
func (s *InMemoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return serrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func applyInput(row catalog.Row, in catalog.Input) catalog.Row {
	row.Name = in.Name
	row.Description = in.Description
	row.Price = in.Price
	row.OldPrice = in.OldPrice
	row.Image = in.Image
	row.Category = in.Category
	row.Featured = in.Featured
	row.New = in.New
	row.Sale = in.Sale
	row.Rating = in.Rating
	row.ReviewCount = in.ReviewCount
	return row
}
