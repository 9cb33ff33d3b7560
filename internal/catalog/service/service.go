// Package service implements the product gateway commands used by the admin surface.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/catalog/store"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
)

// ProductService defines the product gateway operations.
type ProductService interface {
	// FindAll returns all products, newest first.
	FindAll(ctx context.Context) ([]catalog.Product, error)

	// FindByID retrieves a single product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*catalog.Product, error)

	// Create validates and inserts a product.
	Create(ctx context.Context, in catalog.Input) (*catalog.Product, error)

	// Update validates and replaces an existing product.
	Update(ctx context.Context, id string, in catalog.Input) (*catalog.Product, error)

	// DeleteByID removes a product.
	DeleteByID(ctx context.Context, id string) error
}

// Service implements ProductService on top of a ProductStore and announces every
// successful mutation on the change feed.
type Service struct {
	store     store.ProductStore
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

var _ ProductService = (*Service)(nil)

// NewService creates a new product service. A nil publisher disables change events.
func NewService(s store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.Discard
	}
	return &Service{
		store:     s,
		publisher: publisher,
		validate:  web.NewValidator(),
		logger:    logger.With("component", "product_service"),
		now:       time.Now,
	}
}

func (s *Service) FindAll(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return catalog.FromRows(rows), nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	p := catalog.FromRow(*row)
	return &p, nil
}

func (s *Service) Create(ctx context.Context, in catalog.Input) (*catalog.Product, error) {
	in, err := s.validated(in)
	if err != nil {
		return nil, err
	}
	row, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.announce(ctx, events.ChangeInsert, row.ID)
	p := catalog.FromRow(*row)
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id string, in catalog.Input) (*catalog.Product, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	in, err = s.validated(in)
	if err != nil {
		return nil, err
	}
	row, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}
	s.announce(ctx, events.ChangeUpdate, row.ID)
	p := catalog.FromRow(*row)
	return &p, nil
}

func (s *Service) DeleteByID(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	s.announce(ctx, events.ChangeDelete, id)
	return nil
}

func (s *Service) validated(in catalog.Input) (catalog.Input, error) {
	in = in.Normalize()
	if err := s.validate.Struct(in); err != nil {
		if fields, ok := web.FieldErrors(err); ok {
			return in, &serrors.ValidationError{Fields: fields}
		}
		return in, fmt.Errorf("failed to validate product: %w", err)
	}
	return in, nil
}

// announce publishes a change signal. The command has already succeeded, so failures are only logged.
func (s *Service) announce(ctx context.Context, kind events.ChangeKind, id string) {
	event := events.ProductChangedEvent{Kind: kind, ProductID: id, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product change", "kind", kind, "product_id", id, "error", err)
	}
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", serrors.ErrInvalidProductID
	}
	return id, nil
}
