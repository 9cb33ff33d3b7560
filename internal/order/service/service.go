// Package service implements checkout and order tracking.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/internal/order/store"
	"github.com/abgdnv/storefront/internal/state"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

const numberAttempts = 3

// CheckoutInput is the customer part of a checkout.
type CheckoutInput struct {
	Name    string `json:"name"    validate:"required,max=200"`
	Email   string `json:"email"   validate:"required,email"`
	Address string `json:"address" validate:"required,max=500"`
}

// Catalog looks up current product data.
type Catalog interface {
	FindByID(id string) (catalog.Product, bool)
}

type OrderService interface {
	// Checkout turns the cart of st into an order.
	// Returns ErrEmptyCart for an empty cart and ErrProductNotFound if a cart item left the catalog.
	Checkout(ctx context.Context, st state.State, in CheckoutInput) (*order.Order, error)

	// Track finds an order by number for the customer who placed it.
	// Returns ErrOrderNotFound or ErrEmailMismatch.
	Track(ctx context.Context, number, email string) (*order.Order, error)
}

type Service struct {
	store         store.OrderStore
	catalog       Catalog
	publisher     messaging.Publisher
	validate      *validator.Validate
	logger        *slog.Logger
	ordersCounter metric.Int64Counter
	now           func() time.Time
	newNumber     func() (string, error)
}

var _ OrderService = (*Service)(nil)

func NewService(orderStore store.OrderStore, cat Catalog, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront/order")
	ordersCounter, err := meter.Int64Counter("orders_placed", metric.WithDescription("Total number of placed orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_placed counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.Discard
	}
	return &Service{
		store:         orderStore,
		catalog:       cat,
		publisher:     publisher,
		validate:      web.NewValidator(),
		logger:        logger.With("component", "order_service"),
		ordersCounter: ordersCounter,
		now:           time.Now,
		newNumber:     order.NewNumber,
	}
}

func (s *Service) Checkout(ctx context.Context, st state.State, in CheckoutInput) (*order.Order, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if err := s.validate.Struct(in); err != nil {
		if fields, ok := web.FieldErrors(err); ok {
			return nil, &serrors.ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("failed to validate checkout: %w", err)
	}
	if len(st.Cart) == 0 {
		return nil, serrors.ErrEmptyCart
	}

	// prices come from the catalog, not from the session
	items := make([]order.Item, 0, len(st.Cart))
	total := decimal.Zero
	for _, line := range st.Cart {
		p, ok := s.catalog.FindByID(line.ProductID)
		if !ok {
			return nil, fmt.Errorf("product %s is no longer available: %w", line.ProductID, serrors.ErrProductNotFound)
		}
		price := decimal.NewFromFloat(p.Price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, order.Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	o := &order.Order{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Address:   in.Address,
		Items:     items,
		Total:     total.Round(2),
		Status:    order.StatusPlaced,
		CreatedAt: s.now().UTC(),
	}
	if err := s.create(ctx, o); err != nil {
		return nil, err
	}

	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.OrderPlacedEvent{
		Carrier:   carrier,
		OrderID:   o.ID,
		Number:    o.Number,
		Email:     o.Email,
		Total:     o.Total,
		ItemCount: o.ItemCount(),
		CreatedAt: o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderPlacedEvent", "error", err, "number", o.Number)
	}
	s.ordersCounter.Add(ctx, 1)
	s.logger.InfoContext(ctx, "order placed", "number", o.Number, "items", o.ItemCount(), "total", o.Total.String())
	return o, nil
}

// create stores o, drawing a fresh number when the previous one collided.
func (s *Service) create(ctx context.Context, o *order.Order) error {
	for attempt := 1; ; attempt++ {
		number, err := s.newNumber()
		if err != nil {
			return err
		}
		o.Number = number
		err = s.store.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateNumber) || attempt == numberAttempts {
			return fmt.Errorf("failed to create order: %w", err)
		}
		s.logger.WarnContext(ctx, "order number collision, retrying", "number", o.Number, "attempt", attempt)
	}
}

func (s *Service) Track(ctx context.Context, number, email string) (*order.Order, error) {
	number = order.NormalizeNumber(number)
	email = strings.TrimSpace(email)
	fields := map[string]string{}
	if number == "" {
		fields["number"] = "failed on rule: required"
	}
	if email == "" {
		fields["email"] = "failed on rule: required"
	}
	if len(fields) > 0 {
		return nil, &serrors.ValidationError{Fields: fields}
	}
	o, err := s.store.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.Email, email) {
		return nil, serrors.ErrEmailMismatch
	}
	return o, nil
}
