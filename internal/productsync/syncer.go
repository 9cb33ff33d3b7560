// Package productsync keeps a product snapshot in step with the gateway.
//
// A Syncer performs one initial fetch and then re-fetches the whole product
// list on every change notification. Results are published to a single
// listener in the order they were requested; a response that arrives after a
// newer one has been published is discarded.
package productsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/feed"
	"github.com/abgdnv/storefront/pkg/messaging/events"
)

// LoadFailedMessage is the snapshot error shown when the initial fetch fails.
const LoadFailedMessage = "Failed to load products"

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("syncer already started")

// Fetcher returns the full product list, newest first.
type Fetcher interface {
	Fetch(ctx context.Context) ([]catalog.Product, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]catalog.Product, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]catalog.Product, error) {
	return f(ctx)
}

// Listener receives every published snapshot. Calls never overlap.
// A listener must not call Stop.
type Listener func(catalog.Snapshot)

// Syncer is the product sync hook.
type Syncer struct {
	fetcher    Fetcher
	subscriber feed.Subscriber
	listener   Listener
	metrics    *Metrics
	logger     *slog.Logger

	// pubMu serializes listener calls; it is always taken before mu.
	pubMu sync.Mutex

	mu        sync.Mutex
	started   bool
	mounted   bool
	snap      catalog.Snapshot
	issued    uint64
	published uint64
	cancel    context.CancelFunc
	sub       feed.Subscription

	inflight sync.WaitGroup
}

// NewSyncer creates a syncer. metrics may be nil.
func NewSyncer(fetcher Fetcher, subscriber feed.Subscriber, listener Listener, metrics *Metrics, logger *slog.Logger) *Syncer {
	if listener == nil {
		listener = func(catalog.Snapshot) {}
	}
	return &Syncer{
		fetcher:    fetcher,
		subscriber: subscriber,
		listener:   listener,
		metrics:    metrics,
		logger:     logger.With("component", "product_sync"),
		snap:       catalog.Snapshot{Products: []catalog.Product{}, Loading: true},
	}
}

// Start publishes the loading snapshot, opens the change subscription and
// performs the initial fetch. It blocks until the initial fetch finished.
// The initial fetch is not retried; its failure is reported through the snapshot.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mounted = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.publishLoading()

	sub, err := s.subscriber.Subscribe(runCtx, s.onChange)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to subscribe to product changes, live updates disabled", "error", err)
	} else {
		s.mu.Lock()
		stopped := !s.mounted
		if !stopped {
			s.sub = sub
		}
		s.mu.Unlock()
		if stopped {
			sub.Unsubscribe()
		}
	}

	seq, ok := s.nextSeq(false)
	if !ok {
		return nil
	}
	products, err := s.fetcher.Fetch(runCtx)
	if err != nil {
		s.logger.ErrorContext(ctx, "initial product fetch failed", "error", err)
		s.metrics.refresh(ctx, outcomeFailed)
		s.apply(ctx, seq, catalog.Snapshot{Products: []catalog.Product{}, Error: LoadFailedMessage})
		return nil
	}
	s.apply(ctx, seq, catalog.Snapshot{Products: products})
	return nil
}

// Stop unmounts the syncer: the subscription is closed, in-flight fetches are
// cancelled and nothing is published afterwards. Stop does not wait for
// in-flight fetches to return; use Wait for that.
func (s *Syncer) Stop() {
	s.pubMu.Lock()
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		s.pubMu.Unlock()
		return
	}
	s.mounted = false
	cancel, sub := s.cancel, s.sub
	s.sub = nil
	s.mu.Unlock()
	s.pubMu.Unlock()

	cancel()
	if sub != nil {
		sub.Unsubscribe()
	}
	s.logger.Info("product sync stopped")
}

// Wait blocks until every re-fetch started so far has returned.
func (s *Syncer) Wait() {
	s.inflight.Wait()
}

// Snapshot returns the last published snapshot.
func (s *Syncer) Snapshot() catalog.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// onChange starts an independent full re-fetch for one change notification.
func (s *Syncer) onChange(ctx context.Context, event events.ProductChangedEvent) {
	seq, ok := s.nextSeq(true)
	if !ok {
		return
	}
	s.logger.DebugContext(ctx, "product change received", "kind", event.Kind, "product_id", event.ProductID, "seq", seq)
	go func() {
		defer s.inflight.Done()
		s.refresh(ctx, seq)
	}()
}

func (s *Syncer) refresh(ctx context.Context, seq uint64) {
	products, err := s.fetcher.Fetch(ctx)
	if err != nil {
		// the listener keeps the previous snapshot
		s.logger.WarnContext(ctx, "product re-fetch failed", "seq", seq, "error", err)
		s.metrics.refresh(ctx, outcomeFailed)
		return
	}
	s.apply(ctx, seq, catalog.Snapshot{Products: products})
}

// nextSeq issues the next request sequence while mounted. With track set the
// request is registered with the in-flight group.
func (s *Syncer) nextSeq(track bool) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return 0, false
	}
	s.issued++
	if track {
		s.inflight.Add(1)
	}
	return s.issued, true
}

func (s *Syncer) publishLoading() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	snap := catalog.Snapshot{Products: s.snap.Products, Loading: true}
	s.snap = snap
	s.mu.Unlock()
	s.listener(snap)
}

// apply publishes snap unless the syncer is unmounted or a newer result was already published.
func (s *Syncer) apply(ctx context.Context, seq uint64, snap catalog.Snapshot) {
	if snap.Products == nil {
		snap.Products = []catalog.Product{}
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	switch {
	case !s.mounted:
		s.mu.Unlock()
		s.metrics.refresh(ctx, outcomeUnmounted)
		return
	case seq <= s.published:
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding stale product list", "seq", seq, "published", s.published)
		s.metrics.refresh(ctx, outcomeStale)
		return
	}
	s.published = seq
	s.snap = snap
	s.mu.Unlock()

	s.listener(snap)
	s.metrics.refresh(ctx, outcomePublished)
}
