package messaging

import (
	"context"
)

const (
	// ProductsChangedSubject carries a signal for every insert, update or delete on the products table.
	ProductsChangedSubject = "products.changed"
	// OrdersPlacedSubject carries checkouts completed by storefront sessions.
	OrdersPlacedSubject = "orders.placed"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
