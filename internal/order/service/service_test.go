package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/storefront/internal/catalog"
	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/internal/order/store"
	"github.com/abgdnv/storefront/internal/state"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type catalogMap map[string]catalog.Product

func (c catalogMap) FindByID(id string) (catalog.Product, bool) {
	p, ok := c[id]
	return p, ok
}

var products = catalogMap{
	"lamp": {ID: "lamp", Name: "Lamp", Price: 20},
	"rug":  {ID: "rug", Name: "Rug", Price: 45.5},
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e messaging.Event) error {
	return m.Called(ctx, e).Error(0)
}

func cartWith(items ...catalog.Product) state.State {
	s := state.NewStore()
	for _, p := range items {
		s.AddToCart(p)
	}
	return s.State()
}

var customer = CheckoutInput{Name: "Jane Doe", Email: "jane@example.com", Address: "1 Main St"}

func TestService_Checkout(t *testing.T) {
	testCases := []struct {
		name        string
		cart        state.State
		input       CheckoutInput
		expectErr   error
		expectTotal string
	}{
		{
			name:        "Success - priced from catalog",
			cart:        cartWith(catalog.Product{ID: "lamp", Price: 1}, catalog.Product{ID: "lamp"}, catalog.Product{ID: "rug"}),
			input:       customer,
			expectTotal: "85.50",
		},
		{
			name:      "Error - empty cart",
			cart:      state.Empty(),
			input:     customer,
			expectErr: serrors.ErrEmptyCart,
		},
		{
			name:      "Error - product left the catalog",
			cart:      cartWith(catalog.Product{ID: "gone"}),
			input:     customer,
			expectErr: serrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := new(MockPublisher)
			pub.On("Publish", mock.Anything, mock.AnythingOfType("events.OrderPlacedEvent")).Return(nil).Maybe()
			orders := store.NewInMemoryStore()
			svc := NewService(orders, products, pub, discardLogger)

			// when
			o, err := svc.Checkout(context.Background(), tc.cart, tc.input)

			// then
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Regexp(t, `^ORD-[A-Z2-9]{8}$`, o.Number)
			assert.Equal(t, tc.expectTotal, o.Total.StringFixed(2))
			assert.Equal(t, order.StatusPlaced, o.Status)
			assert.Equal(t, 3, o.ItemCount())

			stored, err := orders.FindByNumber(context.Background(), o.Number)
			require.NoError(t, err)
			assert.Equal(t, o.ID, stored.ID)

			pub.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e events.OrderPlacedEvent) bool {
				return e.Number == o.Number && e.ItemCount == 3 && e.Total.Equal(o.Total)
			}))
		})
	}
}

func TestService_Checkout_Validation(t *testing.T) {
	svc := NewService(store.NewInMemoryStore(), products, nil, discardLogger)
	_, err := svc.Checkout(context.Background(), cartWith(products["lamp"]), CheckoutInput{Name: " ", Email: "nope"})
	var vErr *serrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "email")
	assert.Contains(t, vErr.Fields, "address")
}

func TestService_Checkout_PublishFailureStillSucceeds(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats down"))
	svc := NewService(store.NewInMemoryStore(), products, pub, discardLogger)

	o, err := svc.Checkout(context.Background(), cartWith(products["rug"]), customer)

	require.NoError(t, err)
	assert.NotEmpty(t, o.Number)
	pub.AssertExpectations(t)
}

func TestService_Checkout_RetriesNumberCollision(t *testing.T) {
	// given
	orders := store.NewInMemoryStore()
	svc := NewService(orders, products, nil, discardLogger)
	numbers := []string{"ORD-AAAAAAAA", "ORD-AAAAAAAA", "ORD-BBBBBBBB"}
	svc.newNumber = func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}
	_, err := svc.Checkout(context.Background(), cartWith(products["lamp"]), customer)
	require.NoError(t, err)
	// when
	o, err := svc.Checkout(context.Background(), cartWith(products["lamp"]), customer)
	// then
	require.NoError(t, err)
	assert.Equal(t, "ORD-BBBBBBBB", o.Number)
}

func TestService_Track(t *testing.T) {
	// given
	orders := store.NewInMemoryStore()
	svc := NewService(orders, products, nil, discardLogger)
	placed, err := svc.Checkout(context.Background(), cartWith(products["lamp"]), customer)
	require.NoError(t, err)

	testCases := []struct {
		name      string
		number    string
		email     string
		expectErr error
	}{
		{name: "Success", number: placed.Number, email: "jane@example.com"},
		{name: "Success - case-insensitive email and number", number: " " + placed.Number + " ", email: "JANE@Example.COM"},
		{name: "Error - unknown number", number: "ORD-ZZZZZZZZ", email: "jane@example.com", expectErr: serrors.ErrOrderNotFound},
		{name: "Error - email mismatch", number: placed.Number, email: "john@example.com", expectErr: serrors.ErrEmailMismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			o, err := svc.Track(context.Background(), tc.number, tc.email)
			// then
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, placed.ID, o.ID)
		})
	}
}

func TestService_Track_MissingArguments(t *testing.T) {
	svc := NewService(store.NewInMemoryStore(), products, nil, discardLogger)

	testCases := []struct {
		name           string
		number         string
		email          string
		expectedFields map[string]string
	}{
		{name: "Both blank", number: "", email: " ", expectedFields: map[string]string{"number": "failed on rule: required", "email": "failed on rule: required"}},
		{name: "Number blank", number: "  ", email: "jane@example.com", expectedFields: map[string]string{"number": "failed on rule: required"}},
		{name: "Email blank", number: "ORD-AAAAAAAA", email: "", expectedFields: map[string]string{"email": "failed on rule: required"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			_, err := svc.Track(context.Background(), tc.number, tc.email)
			// then
			var vErr *serrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.expectedFields, vErr.Fields)
		})
	}
}
