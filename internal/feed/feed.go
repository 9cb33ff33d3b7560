// Package feed delivers product change notifications to in-process consumers.
//
// A notification is only a hint that the products table changed; consumers
// re-query the gateway instead of applying the payload.
package feed

import (
	"context"
	"sync"

	"github.com/abgdnv/storefront/pkg/messaging/events"
)

// Handler receives one change notification. It must not block for long.
type Handler func(ctx context.Context, event events.ProductChangedEvent)

// Subscription is an open change feed.
type Subscription interface {
	// Unsubscribe stops delivery and waits until no Handler call is running.
	// It is safe to call more than once.
	Unsubscribe()
}

// Subscriber opens change feed subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

// subscription is a delivery goroutine bound to a cancel func.
type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	onStop func()
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		if s.onStop != nil {
			s.onStop()
		}
	})
}
