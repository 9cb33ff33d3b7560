package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
)

const localBuffer = 64

// Local is an in-process broker. It implements messaging.Publisher for the
// gateway side and Subscriber for the sync side.
type Local struct {
	mu     sync.RWMutex
	subs   map[uint64]chan events.ProductChangedEvent
	nextID uint64
	logger *slog.Logger
}

var (
	_ messaging.Publisher = (*Local)(nil)
	_ Subscriber          = (*Local)(nil)
)

// NewLocal creates an empty broker.
func NewLocal(logger *slog.Logger) *Local {
	return &Local{
		subs:   make(map[uint64]chan events.ProductChangedEvent),
		logger: logger.With("component", "local_feed"),
	}
}

// Publish fans a product change out to every subscriber. Events on other subjects are ignored.
// The payload goes through the same encoding as on the wire.
func (l *Local) Publish(_ context.Context, event messaging.Event) error {
	if event.Subject() != messaging.ProductsChangedSubject {
		return nil
	}
	data, err := event.Payload()
	if err != nil {
		return err
	}
	change, err := events.DecodeProductChanged(data)
	if err != nil {
		l.logger.Warn("undecodable change payload, delivering generic signal", "error", err)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, ch := range l.subs {
		select {
		case ch <- change:
		default:
			// the subscriber already has a full backlog of re-fetch triggers
			l.logger.Warn("subscriber backlog full, dropping change signal", "subscription", id)
		}
	}
	return nil
}

// Subscribe registers handler until the returned subscription is closed or ctx is done.
func (l *Local) Subscribe(ctx context.Context, handler Handler) (Subscription, error) {
	ch := make(chan events.ProductChangedEvent, localBuffer)

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.subs[id] = ch
	l.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		}()
		for {
			select {
			case <-subCtx.Done():
				return
			case e := <-ch:
				handler(subCtx, e)
			}
		}
	}()
	return sub, nil
}

// Subscribers reports the number of open subscriptions.
func (l *Local) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
